// Copyright 2026 Harald Albrecht.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nstest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
)

// SkipUnlessKernelAtLeast skips the current test unless the running
// kernel reports at least the given major.minor release. Kernel release
// strings aren't semver, so only the leading major.minor pair gets
// compared; anything unparseable skips, too.
func SkipUnlessKernelAtLeast(major, minor int) {
	GinkgoHelper()

	release, err := os.ReadFile("/proc/sys/kernel/osrelease")
	if err != nil {
		Skip("cannot determine kernel release: " + err.Error())
	}
	haveMajor, haveMinor, ok := majorMinor(strings.TrimSpace(string(release)))
	if !ok {
		Skip(fmt.Sprintf("cannot parse kernel release %q", strings.TrimSpace(string(release))))
	}
	if haveMajor < major || (haveMajor == major && haveMinor < minor) {
		Skip(fmt.Sprintf("needs kernel %d.%d or later, have %d.%d",
			major, minor, haveMajor, haveMinor))
	}
}

// majorMinor extracts the leading major and minor numbers from a kernel
// release string such as "6.8.0-41-generic".
func majorMinor(release string) (major, minor int, ok bool) {
	fields := strings.SplitN(release, ".", 3)
	if len(fields) < 2 {
		return 0, 0, false
	}
	major, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, false
	}
	minorField, _, _ := strings.Cut(fields[1], "-")
	minor, err = strconv.Atoi(minorField)
	if err != nil {
		return 0, 0, false
	}
	return major, minor, true
}
