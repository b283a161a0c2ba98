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

package mntns_test

import (
	"os"
	"runtime"
	"time"

	"github.com/thediveo/enterspace/internal/nstest"
	"github.com/thediveo/enterspace/mntns"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

var _ = Describe("mount namespaces", func() {

	BeforeEach(func() {
		goodfds := Filedescriptors()
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})
	})

	It("identifies the caller's current mount namespace", func() {
		mntnsfd := Successful(mntns.Current())
		defer func() { _ = unix.Close(mntnsfd) }()

		mntnsid := Successful(mntns.CurrentIno())
		Expect(mntnsid).NotTo(BeZero())
		Expect(mntns.Ino(mntnsfd)).To(Equal(mntnsid))
		Expect(mntns.Ino("/proc/thread-self/ns/mnt")).To(Equal(mntnsid))
	})

	It("rejects references to other kinds of namespaces", func() {
		Expect(mntns.Ino("/proc/thread-self/ns/uts")).Error().To(
			MatchError(ContainSubstring("not a mount namespace")))
	})

	When("privileged", Ordered, func() {

		BeforeAll(func() {
			if os.Getuid() != 0 {
				Skip("needs root")
			}
		})

		It("runs a function inside a different mount namespace, leaving the process alone", func() {
			origid := Successful(mntns.CurrentIno())
			mntnsfd, _ := nstest.NewTransientMnt()
			transientid := nstest.Ino(mntnsfd, unix.CLONE_NEWNS)
			Expect(transientid).NotTo(Equal(origid))

			Expect(mntns.Do(func() error {
				Expect(mntns.CurrentIno()).To(Equal(transientid),
					"didn't switch the mount namespace")
				return nil
			}, mntnsfd)).To(Succeed())
			Expect(mntns.CurrentIno()).To(Equal(origid))
			Expect(mntns.Ino("/proc/self/ns/mnt")).To(Equal(origid),
				"the process must never switch")
		})

		It("refuses to join while the filesystem attributes are still shared", func() {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread() // no switch can have happened

			mntnsfd, _ := nstest.NewTransientMnt()
			Expect(mntns.Join(mntnsfd)).To(MatchError(unix.EINVAL))
		})

		It("joins another mount namespace after detaching", func() {
			runtime.LockOSThread() // throw away, detaching cannot be undone

			origfd := nstest.Current(unix.CLONE_NEWNS)
			origid := nstest.Ino(origfd, unix.CLONE_NEWNS)
			mntnsfd, _ := nstest.NewTransientMnt()
			transientid := nstest.Ino(mntnsfd, unix.CLONE_NEWNS)

			Expect(mntns.DetachFS()).To(Succeed())
			Expect(mntns.Join(mntnsfd)).To(Succeed())
			Expect(mntns.CurrentIno()).To(Equal(transientid),
				"didn't switch the mount namespace")

			Expect(mntns.Join(origfd)).To(Succeed())
			Expect(mntns.CurrentIno()).To(Equal(origid),
				"mount namespace restore failed")
		})

	})

})
