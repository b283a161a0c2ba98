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

package porter

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// PIDFromFd returns the PID of the process referenced by the passed PID fd,
// as seen in this process's PID namespace; otherwise, it returns an error.
// In particular, it returns an error for processes that live outside this
// process's PID namespace (their fdinfo shows a PID of 0), as well as for
// processes that have already terminated (PID of -1).
//
// See also: [pidfd_open(2)].
//
// [pidfd_open(2)]: https://man7.org/linux/man-pages/man2/pidfd_open.2.html
func PIDFromFd(pidfd int) (int, error) {
	target, err := os.Readlink("/proc/self/fd/" + strconv.Itoa(pidfd))
	if err != nil {
		return 0, err
	}
	if target != "anon_inode:[pidfd]" {
		return 0, fmt.Errorf("fd %d is not a PID fd", pidfd)
	}

	fdinfo, err := os.ReadFile("/proc/self/fdinfo/" + strconv.Itoa(pidfd))
	if err != nil {
		return 0, err
	}
	for line := range strings.Lines(string(fdinfo)) {
		value, ok := strings.CutPrefix(line, "Pid:\t")
		if !ok || value == "" {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, err
		}
		if pid <= 0 {
			return 0, fmt.Errorf("process referenced by PID fd %d is unreachable", pidfd)
		}
		return pid, nil
	}
	return 0, fmt.Errorf("fd %d has no PID information", pidfd)
}
