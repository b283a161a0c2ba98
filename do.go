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
	"runtime"
	"slices"

	"golang.org/x/sys/unix"
)

// Do calls the passed fn synchronously while attached to the specified
// namespace(s), afterwards restoring the calling thread's previous
// namespace membership again. Namespaces not specified remain the
// caller's currently attached ones. Do returns fn's error, or an error
// describing why fn could not be run attached as requested.
//
// Do returns an error when one of the references is a user namespace:
// switching the user namespace is not possible for multi-threaded
// processes, this is a design decision of the Linux kernel user
// namespace developers.
//
// When a mount namespace is passed in, fn runs on a separate throw-away
// go routine locked to a throw-away OS-level thread with unshared
// filesystem attributes, so the process-wide filesystem attributes stay
// untouched. That thread additionally attaches to the caller's other
// current namespaces, except for those explicitly overridden, so fn
// observes the same namespace configuration as the caller plus the
// requested changes.
//
// Without a mount namespace fn runs on the caller's go routine, locked
// to its OS-level thread for the duration. If the previous namespace
// membership cannot be restored afterwards, the thread stays locked to
// its go routine forever, so the Go runtime eventually throws the tainted
// thread away instead of running other go routines on it.
func Do(fn func() error, nsfd int, nsfds ...int) error {
	var mntnsfd = int(-1)
	var othernsfds []int

	for _, nsfd := range append([]int{nsfd}, nsfds...) {
		typ, err := TypeOf(nsfd)
		if err != nil {
			return err
		}
		switch typ {
		case unix.CLONE_NEWUSER:
			return errors.New("cannot run in a different user namespace")
		case unix.CLONE_NEWNS:
			mntnsfd = nsfd
		default:
			othernsfds = append(othernsfds, nsfd)
		}
	}

	if mntnsfd >= 0 {
		return doSeparate(fn, mntnsfd, othernsfds...)
	}
	return doInAndOut(fn, othernsfds...)
}

// doInAndOut runs fn on the caller's go routine locked to its OS-level
// thread, temporarily switching into the specified namespaces while fn
// runs.
func doInAndOut(fn func() error, othernsfds ...int) (err error) {
	runtime.LockOSThread()

	var callersNamespaces []int
	defer func() {
		defer func() {
			for _, nsfd := range callersNamespaces {
				_ = unix.Close(nsfd)
			}
		}()
		// When fn panicked, silently restore things as good as possible
		// (which is questionable) and then re-panic; the OS-level thread
		// stays locked to its go routine.
		if r := recover(); r != nil {
			for _, nsfd := range slices.Backward(callersNamespaces) {
				_ = Join(nsfd, 0)
			}
			panic(r)
		}
		if rerr := restore(callersNamespaces); rerr != nil {
			// Only unlock the OS-level thread after restoring all changed
			// namespaces; otherwise it gets thrown away.
			err = errors.Join(err, rerr)
			return
		}
		runtime.UnlockOSThread()
	}()

	for _, nsfd := range othernsfds {
		if err := joinSaving(nsfd, &callersNamespaces); err != nil {
			return err
		}
	}
	return fn()
}

// joinSaving switches the calling thread into the namespace referenced
// by nsfd, first saving a reference to the thread's current namespace of
// the same type by appending it to saved.
func joinSaving(nsfd int, saved *[]int) error {
	typ, err := TypeOf(nsfd)
	if err != nil {
		return err
	}
	callerfd, err := Current(typ)
	if err != nil {
		return err
	}
	*saved = append(*saved, callerfd)
	if err := Join(nsfd, typ); err != nil {
		return fmt.Errorf("cannot switch into %s namespace: %w", Name(typ), err)
	}
	return nil
}

// restore re-attaches the calling thread to the passed namespaces in
// reverse order, stopping at the first failure.
func restore(nsfds []int) error {
	for _, nsfd := range slices.Backward(nsfds) {
		if err := Join(nsfd, 0); err != nil {
			typ, _ := TypeOf(nsfd)
			return fmt.Errorf("cannot restore %s namespace: %w", Name(typ), err)
		}
	}
	return nil
}

// doSeparate runs fn on a separate go routine locked to its OS-level
// thread with its own filesystem attributes, so that this thread can
// attach to a mount namespace different from the mount namespace of the
// process and its other threads. The separate thread additionally
// attaches to the namespaces referenced in othernsfds, as well as to the
// caller's current namespaces for all kinds not explicitly overridden.
func doSeparate(fn func() error, mntnsfd int, othernsfds ...int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	// Determine which of the non-user and non-mount namespaces aren't
	// explicitly overridden and therefore need to be taken over from the
	// caller's thread: that thread might be attached to partially
	// different namespaces compared with a fresh OS-level thread.
	pickupTypes := []int{
		unix.CLONE_NEWCGROUP,
		unix.CLONE_NEWIPC,
		unix.CLONE_NEWNET,
		unix.CLONE_NEWPID,
		unix.CLONE_NEWTIME,
		unix.CLONE_NEWUTS,
	}
	for _, nsfd := range othernsfds {
		typ, err := TypeOf(nsfd)
		if err != nil {
			return err
		}
		pickupTypes = slices.DeleteFunc(pickupTypes, func(e int) bool { return e == typ })
	}
	var pickupfds []int
	defer func() {
		for _, nsfd := range pickupfds {
			_ = unix.Close(nsfd)
		}
	}()
	for _, typ := range pickupTypes {
		nsfd, err := Current(typ)
		if err != nil {
			return err
		}
		pickupfds = append(pickupfds, nsfd)
	}

	type outcome struct {
		err    error
		panicv any
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomeCh <- outcome{panicv: r}
			}
		}()

		runtime.LockOSThread()
		// no unlock ever: the tainted thread gets thrown away.

		if err := unix.Unshare(unix.CLONE_FS); err != nil {
			outcomeCh <- outcome{err: fmt.Errorf("cannot unshare filesystem attributes: %w", err)}
			return
		}
		if err := Join(mntnsfd, unix.CLONE_NEWNS); err != nil {
			outcomeCh <- outcome{err: fmt.Errorf("cannot switch into mnt namespace: %w", err)}
			return
		}

		// Attach this separate thread to the same namespaces the caller's
		// thread is attached to, except where the caller explicitly
		// specified different namespaces. Skip switching from one
		// namespace into the very same one, as such switches may fail
		// (time namespaces, for instance) without being needed at all.
		for _, nsfd := range append(slices.Clone(othernsfds), pickupfds...) {
			typ, err := TypeOf(nsfd)
			if err != nil {
				outcomeCh <- outcome{err: err}
				return
			}
			nsino, err := Ino(nsfd)
			if err != nil {
				outcomeCh <- outcome{err: err}
				return
			}
			curino, err := CurrentIno(typ)
			if err != nil {
				outcomeCh <- outcome{err: err}
				return
			}
			if nsino == curino {
				continue
			}
			if err := Join(nsfd, 0); err != nil {
				outcomeCh <- outcome{err: fmt.Errorf("cannot switch into %s namespace: %w", Name(typ), err)}
				return
			}
		}

		outcomeCh <- outcome{err: fn()}
	}()

	res := <-outcomeCh
	if res.panicv != nil {
		panic(res.panicv)
	}
	return res.err
}
