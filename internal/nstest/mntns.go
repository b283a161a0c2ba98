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
	"runtime"

	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2" //nolint:staticcheck // ST1001 rule does not apply
	. "github.com/onsi/gomega"    //nolint:staticcheck // ST1001 rule does not apply
)

// EnterTransientMnt creates and enters a new mount namespace, returning
// a function that needs to be defer'ed. It additionally remounts “/” in
// this new mount namespace to set propagation of mount points to
// “private”, preventing mount point changes from propagating back into
// the host.
//
// Note: the current OS-level thread won't be unlocked when the calling
// unit test returns, as unsharing the filesystem attributes (CLONE_FS),
// such as root directory, current directory, and umask, cannot be
// undone.
//
// [unshare(1)] also defaults mount point propagation to
// MS_REC|MS_PRIVATE by remounting “/”, see util-linux/unshare.c.
//
// [unshare(1)]: https://man7.org/linux/man-pages/man1/unshare.1.html
func EnterTransientMnt() func() {
	GinkgoHelper()

	runtime.LockOSThread() // ...kind of point of no return

	callersMountNamespace, err := enterspace.Current(unix.CLONE_NEWNS)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current mount namespace from procfs")

	// Decouple the filesystem-related attributes of this thread from the
	// ones of our process...
	Expect(unix.Unshare(unix.CLONE_FS|unix.CLONE_NEWNS)).To(Succeed(),
		"cannot create new mount namespace")
	// Remount root so that later mount point manipulations do not
	// propagate back into our host, trashing it.
	Expect(unix.Mount("none", "/", "/", unix.MS_REC|unix.MS_PRIVATE, "")).To(Succeed(),
		"cannot change / mount propagation to private")

	return func() {
		if err := enterspace.Join(callersMountNamespace, 0); err != nil {
			panic(fmt.Sprintf("cannot restore original mount namespace, reason: %s", err.Error()))
		}
		_ = unix.Close(callersMountNamespace)
		// do NOT unlock the OS-level thread, as unsharing CLONE_FS cannot
		// be undone.
	}
}

// NewTransientMnt creates a new transient mount namespace that is kept
// alive by an idle OS-level thread; this idle thread automatically
// terminates upon returning from the current test. NewTransientMnt
// returns a file descriptor referencing the new mount namespace,
// together with a procfs root path (“/proc/$TID/root”) through which the
// contents of the new mount namespace can be accessed from outside it.
func NewTransientMnt() (mntfd int, procfsroot string) {
	GinkgoHelper()

	// closing the done channel tells the idler go routine to call it a
	// day and terminate.
	done := make(chan struct{})
	DeferCleanup(func() { close(done) })

	readyCh := make(chan idlerDetails)
	go func() {
		defer GinkgoRecover()
		runtime.LockOSThread()

		// Whatever is going to happen to us, make sure to unblock the
		// receiving go routine, and even if this is the zero value...
		defer func() {
			close(readyCh)
		}()

		Expect(unix.Unshare(unix.CLONE_FS|unix.CLONE_NEWNS)).To(Succeed(),
			"cannot create new mount namespace")
		Expect(unix.Mount("none", "/", "/", unix.MS_REC|unix.MS_PRIVATE, "")).To(
			Succeed(), "cannot change / mount propagation to private")

		readyCh <- idlerDetails{
			mntnsfd: Current(unix.CLONE_NEWNS),
			TID:     unix.Gettid(),
		}

		<-done // ...idle around, then fall off the discworld...
	}()
	idlerInfo := <-readyCh
	Expect(idlerInfo.mntnsfd).NotTo(BeZero())
	procfsroot = fmt.Sprintf("/proc/%d/root", idlerInfo.TID)
	return idlerInfo.mntnsfd, procfsroot
}

// idlerDetails passes information about an idler's TID and mount
// namespace reference from the idler go routine to its creator.
type idlerDetails struct {
	mntnsfd int
	TID     int
}
