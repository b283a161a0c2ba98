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

//go:build linux

package enterspace_test

import (
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/thediveo/enterspace/internal/nstest"
	"github.com/thediveo/safe"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/success"
)

// Sometimes, you have to (unit) test the expected Linux system behavior,
// as opposed to testing your own code. This serves both as system
// behavior documentation, as well as repeatable system behavior
// checking: children forked after joining namespaces belong to the
// namespaces of the thread that forked them, which is what makes
// join-then-exec starters work in the first place.
var _ = Describe("Linux namespace membership when forking/executing", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	// childNetns forks a shell from the calling go routine and returns
	// the network namespace identification the child sees for itself.
	childNetns := func() string {
		GinkgoHelper()
		var out safe.Buffer
		cmd := exec.Command("/bin/sh", "-c", "readlink /proc/self/ns/net")
		cmd.Stdout = io.MultiWriter(&out, GinkgoWriter)
		cmd.Stderr = GinkgoWriter
		Expect(cmd.Run()).To(Succeed())
		return strings.TrimSpace(out.String())
	}

	It("forks children into the parent's current namespaces", func() {
		Expect(childNetns()).To(Equal(
			Successful(os.Readlink("/proc/thread-self/ns/net"))))
	})

	When("privileged", func() {

		BeforeEach(func() {
			if os.Getuid() != 0 {
				Skip("needs root")
			}
		})

		It("forks children into the namespaces of the switched thread, not of the process", func() {
			defer nstest.EnterTransient(unix.CLONE_NEWNET)()
			transient := Successful(os.Readlink("/proc/thread-self/ns/net"))
			Expect(transient).NotTo(Equal(
				Successful(os.Readlink("/proc/self/ns/net"))))

			Expect(childNetns()).To(Equal(transient))
		})

	})

})
