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

// Current returns a file descriptor referencing the calling OS-level
// thread's current namespace of type typ, failing the current test if
// that isn't possible. The caller's go routine should be thread-locked.
//
// Current schedules a DeferCleanup to close the returned file descriptor
// at the end of the current test, so callers must not close it
// themselves.
func Current(typ int) int {
	GinkgoHelper()

	nsfd, err := enterspace.Current(typ)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current %s namespace", enterspace.Name(typ))
	DeferCleanup(func() {
		_ = unix.Close(nsfd)
	})
	return nsfd
}

// TypeOf returns the type constant of the namespace referenced by a file
// descriptor or VFS path, failing the current test for anything that
// isn't a namespace reference.
func TypeOf[R enterspace.Reference](ref R) int {
	GinkgoHelper()

	typ, err := enterspace.TypeOf(ref)
	Expect(err).NotTo(HaveOccurred())
	return typ
}

// Ino returns the identification (inode number) of the passed namespace,
// additionally asserting that the reference is of the passed type of
// namespace. If the reference is invalid or of a different type, Ino
// fails the current test.
func Ino[R enterspace.Reference](ref R, typ int) uint64 {
	GinkgoHelper()

	ino, err := enterspace.Ino(ref)
	Expect(err).NotTo(HaveOccurred(),
		"cannot stat %s namespace reference %v", enterspace.Name(typ), ref)
	Expect(TypeOf(ref)).To(Equal(typ),
		"not a %s namespace", enterspace.Name(typ))
	return ino
}

// EnterTransient creates and enters a new (and isolated) namespace of the
// specified type, returning a function that needs to be defer'ed in order
// to switch the calling go routine and its locked OS-level thread back
// when the caller itself returns. For instance:
//
//	defer nstest.EnterTransient(unix.CLONE_NEWUTS)()
//
// EnterTransient locks the caller's go routine to its OS-level thread and
// unlocks it again in the deferred cleanup. If the thread cannot be
// switched back, the cleanup panics, keeping the tainted thread locked.
//
// EnterTransient works for cgroup, IPC, net, and UTS namespaces. Mount
// namespaces need [EnterTransientMnt], and user, PID, and time namespaces
// cannot be entered-and-left this way at all: the kernel refuses either
// entering (user, for multi-threaded processes) or returning (PID, time).
func EnterTransient(typ int) func() {
	GinkgoHelper()

	name := enterspace.Name(typ)
	Expect(typ).To(BeElementOf([]int{
		unix.CLONE_NEWCGROUP,
		unix.CLONE_NEWIPC,
		unix.CLONE_NEWNET,
		unix.CLONE_NEWUTS,
	}), "unsupported type %s", name)

	runtime.LockOSThread()

	callersNamespace, err := enterspace.Current(typ)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current %s namespace from procfs", name)
	Expect(unix.Unshare(typ)).To(Succeed(),
		"cannot create new %s namespace", name)

	// The cleanup cannot be DeferCleanup'ed, as it must restore the still
	// locked go routine so that the defer rollback sequence stays correct.
	return func() {
		if err := enterspace.Join(callersNamespace, typ); err != nil {
			panic(fmt.Sprintf("leaving from EnterTransient: cannot restore original %s namespace, reason: %s", name, err.Error()))
		}
		_ = unix.Close(callersNamespace)
		runtime.UnlockOSThread()
	}
}

// NewTransient creates a new namespace of the specified type without
// entering it, returning a file descriptor referencing the new
// namespace. NewTransient works for cgroup, IPC, net, and UTS
// namespaces; mount namespaces need [NewTransientMnt].
//
// NewTransient schedules a DeferCleanup to close the returned file
// descriptor, so callers must not close it themselves. When NewTransient
// returns, the caller's go routine is in the same thread lock state as
// before the call.
func NewTransient(typ int) int {
	GinkgoHelper()

	name := enterspace.Name(typ)
	Expect(typ).To(BeElementOf([]int{
		unix.CLONE_NEWCGROUP,
		unix.CLONE_NEWIPC,
		unix.CLONE_NEWNET,
		unix.CLONE_NEWUTS,
	}), "unsupported type %s", name)

	// if anything below breaks we won't unlock the OS-level thread on
	// purpose so that it gets thrown away as the unit test fails and
	// unwinds.
	runtime.LockOSThread()

	// Linux only allows creating a new namespace in combination with
	// immediately entering it, so first get hold of the current namespace
	// of the specified type in order to re-attach the OS-level thread
	// afterwards.
	callersNamespace, err := enterspace.Current(typ)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine current %s namespace from procfs", name)
	defer func() {
		_ = unix.Close(callersNamespace)
	}()

	Expect(unix.Unshare(typ)).To(Succeed(),
		"cannot create new %s namespace", name)
	newNamespace, err := enterspace.Current(typ)
	Expect(err).NotTo(HaveOccurred(),
		"cannot determine new %s namespace from procfs", name)
	Expect(enterspace.Join(callersNamespace, typ)).To(Succeed(),
		"cannot switch back into original %s namespace", name)
	DeferCleanup(func() { _ = unix.Close(newNamespace) })

	runtime.UnlockOSThread()
	return newNamespace
}
