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
	"golang.org/x/sys/unix"
)

// Join attaches the calling OS-level thread to the Linux kernel namespace
// referenced by the open file descriptor nsfd, using [setns(2)]. nstype
// restricts which type of namespace may be joined and must be one of the
// unix.CLONE_NEW* constants, or 0 to accept whatever type of namespace
// nsfd references.
//
// Join returns nil on success. Otherwise, it returns the kernel's verdict
// as an unmodified [unix.Errno]: no retries, no interpretation, no
// classification. EBADF for dead descriptors, EINVAL for namespace/nstype
// mismatches, EPERM for missing capabilities, and so on, are all solely
// the caller's to interpret; see the [setns(2)] ERRORS section. Join
// itself does not validate its arguments at all, that is the kernel's
// job.
//
// The descriptor is borrowed: Join never duplicates, retains, nor closes
// nsfd, not even on failure. Ownership stays with the caller.
//
// Namespace membership is a per-thread property, so callers need to have
// their go routine locked to its OS-level thread ([runtime.LockOSThread])
// for the outcome to be of any use. Join does not track the previously
// attached namespace; capture it beforehand with [Current] if you intend
// to return. Two of the namespace types come with kernel-imposed
// restrictions worth repeating: joining a PID namespace affects only
// children created afterwards, and joining a user namespace is refused
// for multi-threaded processes.
//
// [setns(2)]: https://man7.org/linux/man-pages/man2/setns.2.html
func Join(nsfd int, nstype int) error {
	return unix.Setns(nsfd, nstype)
}
