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
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sys/unix"
)

// Member is a single namespace to join as part of a [Set].
type Member struct {
	// FD is an open file descriptor referencing the namespace to join.
	// It is borrowed: joining never closes it, ownership stays with
	// whoever opened it.
	FD int
	// Type restricts the type of namespace to join, as one of the
	// unix.CLONE_NEW* constants, or 0 to accept whatever type of
	// namespace FD references. Passed through to [Join] as given.
	Type int
	// Tolerant members that the kernel refuses to join are logged and
	// skipped instead of aborting the whole set.
	Tolerant bool
}

// Set is a join plan: an unordered collection of namespaces that a
// starter wants to attach to before executing a workload. [Set.Join]
// brings the members into a kernel-friendly order and joins them one
// after another, deciding per member whether a kernel rejection aborts
// the setup or is tolerable.
type Set []Member

// joinRank orders namespace types for joining: the user namespace comes
// first as it determines the capabilities the other joins may need, the
// mount namespace comes last as it changes how the kernel resolves
// paths. Types that cannot be determined sort between the named types
// and the mount namespace, keeping their relative order.
func joinRank(typ int) int {
	switch typ {
	case unix.CLONE_NEWUSER:
		return 0
	case unix.CLONE_NEWPID:
		return 1
	case unix.CLONE_NEWCGROUP:
		return 2
	case unix.CLONE_NEWIPC:
		return 3
	case unix.CLONE_NEWUTS:
		return 4
	case unix.CLONE_NEWNET:
		return 5
	case unix.CLONE_NEWTIME:
		return 6
	case unix.CLONE_NEWNS:
		return 8
	}
	return 7
}

// Join attaches the calling OS-level thread to all members of the set,
// in a kernel-friendly order independent of the order of the members:
// user namespace first, mount namespace last. The order of a member is
// determined by its Type, falling back to asking the kernel about the
// type of namespace its FD references; the Type value actually passed on
// to [Join] always remains the one given in the member.
//
// The first kernel rejection of a non-tolerant member aborts joining,
// returning an error that wraps the kernel's unmodified errno and names
// the failed member. Rejected tolerant members are logged at warning
// level and skipped. Join never closes any member's FD; the caller's go
// routine should be thread-locked.
func (s Set) Join() error {
	ordered := slices.Clone(s)
	slices.SortStableFunc(ordered, func(a, b Member) int {
		return joinRank(effectiveType(a)) - joinRank(effectiveType(b))
	})
	for _, member := range ordered {
		err := Join(member.FD, member.Type)
		if err == nil {
			continue
		}
		name := Name(effectiveType(member))
		if name == "" {
			name = "unknown"
		}
		if member.Tolerant {
			slogger().Warn("tolerating refused namespace join",
				slog.String("type", name),
				slog.Int("fd", member.FD),
				slog.String("err", err.Error()))
			continue
		}
		return fmt.Errorf("cannot join %s namespace%s: %w",
			name, ownerDetail(err, member.FD), err)
	}
	return nil
}

// effectiveType returns the member's given Type, falling back to the
// type of namespace its FD references when the member leaves the type
// unspecified. 0 when neither can tell.
func effectiveType(member Member) int {
	if member.Type != 0 {
		return member.Type
	}
	typ, err := TypeOf(member.FD)
	if err != nil {
		return 0
	}
	return typ
}

// ownerDetail returns the identity of the user namespace owning the
// namespace referenced by nsfd, formatted for inclusion in a permission
// failure message; it returns "" for all other failures or when the
// owner cannot be determined.
func ownerDetail(err error, nsfd int) string {
	if !errors.Is(err, unix.EPERM) {
		return ""
	}
	usernsfd, err := OwnerUserns(nsfd)
	if err != nil {
		return ""
	}
	defer func() { _ = unix.Close(usernsfd) }()
	ino, err := Ino(usernsfd)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (owned by user:[%d])", ino)
}
