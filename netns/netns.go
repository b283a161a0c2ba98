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

package netns

import (
	"fmt"

	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"
)

// Join switches the calling OS-level thread into the network namespace
// referenced by the open file descriptor netnsfd. The calling go routine
// must be thread-locked ([runtime.LockOSThread]), otherwise the switch
// applies to an arbitrary thread and the scheduler will happily move the
// go routine elsewhere afterwards.
//
// Join rejects references to any other kind of namespace.
func Join(netnsfd int) error {
	return enterspace.Join(netnsfd, unix.CLONE_NEWNET)
}

// Do calls the passed fn synchronously while the calling go routine's
// OS-level thread is attached to the network namespace referenced by
// netnsfd, restoring the thread's original network namespace afterwards.
// It returns fn's error, or an error describing why fn could not be run
// in the requested network namespace.
//
// Sockets fn creates remain attached to the network namespace they were
// created in, so they can be used after Do returns.
func Do(fn func() error, netnsfd int) error {
	return enterspace.Do(fn, netnsfd)
}

// Current returns a file descriptor referencing the network namespace
// the calling OS-level thread is currently attached to. The caller owns
// the returned file descriptor and is responsible for closing it. The
// calling go routine should be thread-locked for the result to be
// meaningful.
func Current() (int, error) {
	return enterspace.Current(unix.CLONE_NEWNET)
}

// CurrentIno returns the identification (inode number) of the network
// namespace the calling OS-level thread is currently attached to.
func CurrentIno() (uint64, error) {
	return enterspace.CurrentIno(unix.CLONE_NEWNET)
}

// Ino returns the identification (inode number) of the network namespace
// referenced either by an open file descriptor or a VFS path name. Ino
// rejects references to any other kind of namespace.
func Ino[R enterspace.Reference](netns R) (uint64, error) {
	typ, err := enterspace.TypeOf(netns)
	if err != nil {
		return 0, err
	}
	if typ != unix.CLONE_NEWNET {
		return 0, fmt.Errorf("not a network namespace reference, but a %s namespace",
			enterspace.Name(typ))
	}
	return enterspace.Ino(netns)
}
