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

package mntns

import (
	"fmt"

	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"
)

// DetachFS decouples the calling OS-level thread's filesystem attributes
// (root directory, current directory, and umask) from the ones shared
// with the other threads of this process, a precondition for [Join]ing a
// mount namespace. The calling go routine must be thread-locked
// ([runtime.LockOSThread]).
//
// Detaching cannot be undone, so the thread must never be unlocked from
// its go routine again; when the go routine ends, the Go runtime then
// throws the tainted thread away.
func DetachFS() error {
	if err := unix.Unshare(unix.CLONE_FS); err != nil {
		return fmt.Errorf("cannot detach filesystem attributes: %w", err)
	}
	return nil
}

// Join switches the calling OS-level thread into the mount namespace
// referenced by the open file descriptor mntnsfd. The calling go routine
// must be thread-locked and must have called [DetachFS] before, as the
// kernel refuses mount namespace switches with EINVAL for threads still
// sharing their filesystem attributes.
//
// Most callers are better served by [Do], which takes care of the thread
// handling. Join rejects references to any other kind of namespace.
func Join(mntnsfd int) error {
	return enterspace.Join(mntnsfd, unix.CLONE_NEWNS)
}

// Do calls the passed fn synchronously from a throw-away OS-level thread
// attached to the mount namespace referenced by mntnsfd, returning fn's
// error, or an error describing why fn could not be run in the requested
// mount namespace.
//
// The throw-away thread has its own filesystem attributes and otherwise
// attaches to the caller's current namespaces, so fn sees the caller's
// world with only the mount namespace (and thus path resolution)
// changed. The caller's own thread and the process-wide filesystem
// attributes stay untouched.
func Do(fn func() error, mntnsfd int) error {
	return enterspace.Do(fn, mntnsfd)
}

// Current returns a file descriptor referencing the mount namespace the
// calling OS-level thread is currently attached to. The caller owns the
// returned file descriptor and is responsible for closing it. The
// calling go routine should be thread-locked for the result to be
// meaningful.
func Current() (int, error) {
	return enterspace.Current(unix.CLONE_NEWNS)
}

// CurrentIno returns the identification (inode number) of the mount
// namespace the calling OS-level thread is currently attached to.
func CurrentIno() (uint64, error) {
	return enterspace.CurrentIno(unix.CLONE_NEWNS)
}

// Ino returns the identification (inode number) of the mount namespace
// referenced either by an open file descriptor or a VFS path name. Ino
// rejects references to any other kind of namespace.
func Ino[R enterspace.Reference](mntns R) (uint64, error) {
	typ, err := enterspace.TypeOf(mntns)
	if err != nil {
		return 0, err
	}
	if typ != unix.CLONE_NEWNS {
		return 0, fmt.Errorf("not a mount namespace reference, but a %s namespace",
			enterspace.Name(typ))
	}
	return enterspace.Ino(mntns)
}
