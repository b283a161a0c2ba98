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

package api

import (
	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"
)

// RefsRequest asks the porter for references to the namespaces a particular
// process is attached to. The target process is named either by its PID as
// seen by the porter, or by a PID fd travelling out-of-band with the request;
// never by both at the same time.
type RefsRequest struct {
	// PID of the target process in the porter's PID namespace; zero when the
	// target is instead identified by a PID fd.
	PID int
	// PidFD is filled in on the receiving side from the out-of-band fd, if
	// any; it never travels in-band.
	PidFD int
	// Spaces selects the namespace types to fetch references for, as
	// CLONE_NEWxxx constants or'ed together.
	Spaces uint64
}

// RefsResponse contains open file descriptors (>0) referencing the requested
// namespaces of the target process. A zero file descriptor value indicates
// that no reference of that particular type was requested.
//
// Please note that the receiver takes ownership of the returned file
// descriptors and thus is responsible to close them when not needing them
// anymore.
type RefsResponse struct {
	Cgroup, IPC, Mnt, Net, PID, Time, User, UTS int
}

var (
	_ Request    = (*RefsRequest)(nil)
	_ FdsEncoder = (*RefsRequest)(nil)
	_ FdsDecoder = (*RefsRequest)(nil)
)

func (r RefsRequest) request() {}

// EncodeFds returns the PID fd for out-of-band transfer, if the request
// carries one, zeroing the PidFD field so it doesn't get transferred in-band
// by gob too.
func (r *RefsRequest) EncodeFds() []int {
	return auxiliaryFds(nil).borrow(&r.PidFD)
}

// DecodeFds slots the out-of-band fd received with the request back into the
// PidFD field. Any surplus fds get closed, as a request may carry at most a
// single fd.
func (r *RefsRequest) DecodeFds(fds []int) {
	for idx, fd := range fds {
		if idx == 0 {
			r.PidFD = fd
			continue
		}
		_ = unix.Close(fd)
	}
}

var (
	_ Response   = (*RefsResponse)(nil)
	_ FdsEncoder = (*RefsResponse)(nil)
	_ FdsDecoder = (*RefsResponse)(nil)
)

func (r RefsResponse) response() {}

// EncodeFds returns the namespace reference fds contained in the response
// message, replacing the original message fields with zero values so the
// fields don't get transferred by gob in-band.
func (r *RefsResponse) EncodeFds() []int {
	return auxiliaryFds(nil).borrow(&r.Cgroup).
		borrow(&r.IPC).
		borrow(&r.Mnt).
		borrow(&r.Net).
		borrow(&r.PID).
		borrow(&r.Time).
		borrow(&r.User).
		borrow(&r.UTS)
}

// DecodeFds distributes the file descriptors that were received as auxiliary
// data with a response message back into their corresponding message fields,
// asking the kernel for the type of namespace each fd references. DecodeFds
// closes any passed file descriptors it cannot make any sense of.
func (r *RefsResponse) DecodeFds(fds []int) {
	for _, fd := range fds {
		switch typ, _ := unix.IoctlRetInt(fd, enterspace.NS_GET_NSTYPE); typ {
		case unix.CLONE_NEWCGROUP:
			r.Cgroup = fd
		case unix.CLONE_NEWIPC:
			r.IPC = fd
		case unix.CLONE_NEWNS:
			r.Mnt = fd
		case unix.CLONE_NEWNET:
			r.Net = fd
		case unix.CLONE_NEWPID:
			r.PID = fd
		case unix.CLONE_NEWTIME:
			r.Time = fd
		case unix.CLONE_NEWUSER:
			r.User = fd
		case unix.CLONE_NEWUTS:
			r.UTS = fd
		default:
			_ = unix.Close(fd)
		}
	}
}
