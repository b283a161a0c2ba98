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

package enterspace

import (
	"fmt"

	"github.com/thediveo/ioctl"
	"golang.org/x/sys/unix"
)

// Reference is a Linux kernel namespace reference in VFS path textual
// form or as an open file descriptor.
type Reference interface{ ~int | ~string }

// Linux kernel [ioctl(2)] command for [namespace relationship queries].
//
// [ioctl(2)]: https://man7.org/linux/man-pages/man2/ioctl.2.html
// [namespace relationship queries]: https://elixir.bootlin.com/linux/v6.2.11/source/include/uapi/linux/nsfs.h
const _NSIO = 0xb7

var (
	// Returns a file descriptor referring to the owning user namespace of
	// the namespace referred to by a file descriptor.
	NS_GET_USERNS = ioctl.IO(_NSIO, 0x1)
	// Returns the type of namespace CLONE_NEW* value referred to by a file
	// descriptor.
	NS_GET_NSTYPE = ioctl.IO(_NSIO, 0x3)
)

// TypeOf returns the type constant for the Linux kernel namespace
// referenced either by a file descriptor or a VFS path name. The type is
// queried from the kernel using the NS_GET_NSTYPE ioctl, so anything that
// isn't a namespace reference reports an error.
func TypeOf[R Reference](ref R) (int, error) {
	switch ref := any(ref).(type) {
	case int:
		typ, err := unix.IoctlRetInt(ref, NS_GET_NSTYPE)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace: %w", err)
		}
		return typ, nil
	case string:
		fd, err := unix.Open(ref, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace referenced as %q: %w", ref, err)
		}
		defer func() { _ = unix.Close(fd) }()
		typ, err := unix.IoctlRetInt(fd, NS_GET_NSTYPE)
		if err != nil {
			return 0, fmt.Errorf("cannot determine type of namespace referenced as %q: %w", ref, err)
		}
		return typ, nil
	}
	return 0, nil // ST0666 cannot be reached
}

// Ino returns the identification (inode number) of the passed Linux
// kernel namespace that is either referenced by a file descriptor or a
// VFS path name.
func Ino[R Reference](ref R) (uint64, error) {
	var namespaceStat unix.Stat_t
	switch ref := any(ref).(type) {
	case int:
		if err := unix.Fstat(ref, &namespaceStat); err != nil {
			return 0, fmt.Errorf("cannot stat namespace reference %d: %w", ref, err)
		}
	case string:
		if err := unix.Stat(ref, &namespaceStat); err != nil {
			return 0, fmt.Errorf("cannot stat namespace reference %q: %w", ref, err)
		}
	}
	return namespaceStat.Ino, nil
}

// Current returns a file descriptor referencing the calling OS-level
// thread's current namespace of type typ. The caller owns the returned
// file descriptor and is responsible for closing it when not needing it
// anymore. Please note that the caller's go routine should be
// thread-locked ([runtime.LockOSThread]) for the result to be meaningful.
func Current(typ int) (int, error) {
	name := Name(typ)
	if name == "" {
		return 0, fmt.Errorf("unknown type of namespace %d", typ)
	}
	nsfd, err := unix.Open("/proc/thread-self/ns/"+name, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return 0, fmt.Errorf("cannot determine current %s namespace from procfs: %w", name, err)
	}
	return nsfd, nil
}

// CurrentIno returns the identification (inode number) of the namespace
// of type typ the calling OS-level thread is currently attached to.
func CurrentIno(typ int) (uint64, error) {
	name := Name(typ)
	if name == "" {
		return 0, fmt.Errorf("unknown type of namespace %d", typ)
	}
	return Ino("/proc/thread-self/ns/" + name)
}

// OwnerUserns returns a file descriptor referencing the user namespace
// owning the namespace referenced by the passed file descriptor, using
// the NS_GET_USERNS ioctl. The caller owns the returned file descriptor
// and is responsible for closing it.
func OwnerUserns(nsfd int) (int, error) {
	usernsfd, err := unix.IoctlRetInt(nsfd, NS_GET_USERNS)
	if err != nil {
		return 0, fmt.Errorf("cannot determine owning user namespace: %w", err)
	}
	return usernsfd, nil
}
