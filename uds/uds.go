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

package uds

import (
	"errors"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// Conn is one end of a peer-to-peer connected pair of (stream) unix
// domain sockets that can carry open file descriptors in addition to
// ordinary data. It wraps [*net.UnixConn]. Use [NewPair] to create a
// connected pair of Conn ends, then [Conn.SendWithFds] and
// [Conn.ReceiveWithFds] to transfer messages with open file descriptors
// piggybacked on.
type Conn struct {
	*net.UnixConn
}

// NewPair returns both ends of a peer-to-peer connected (stream) unix
// domain socket pair. One end typically gets handed over to a service
// process, while the other end stays with the client.
func NewPair() (near, far *Conn, err error) {
	// The close-on-exec flag only covers the short window until the fds
	// are wrapped; handing an end over to a child process is the
	// caller's business, using os/exec's ExtraFiles.
	fdpair, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	near, err = NewUnixConn(fdpair[0], "near")
	if err != nil {
		// fdpair[0] is always closed by now, but we don't want to leak
		// fdpair[1]...
		_ = unix.Close(fdpair[1])
		return nil, nil, err
	}
	far, err = NewUnixConn(fdpair[1], "far")
	if err != nil {
		// fdpair[0] was closed already, fdpair[1] is always closed by now
		// too, so we only need to dispose of the first successfully
		// created UnixConn...
		_ = near.Close()
		return nil, nil, err
	}
	return near, far, nil
}

// SendWithFds sends the passed data together with the passed open file
// descriptors over the (stream) UDS connection, packing all fds into a
// single control message (ancillary data).
func (c *Conn) SendWithFds(b []byte, fds ...int) (noob int, err error) {
	// unix.UnixRights returns the complete single control message, that
	// is, the header together with the fd payload.
	oob := unix.UnixRights(fds...)
	_, noob, err = c.WriteMsgUnix(b, oob, nil)
	return noob, err
}

// ReceiveWithFds receives data from the (stream) UDS connection into b,
// returning any open file descriptors that arrived in a single control
// message (ancillary data) alongside. Receiving no fds at all is fine,
// fds is then simply nil. maxfds caps how many fds can arrive at once.
func (c *Conn) ReceiveWithFds(b []byte, maxfds int) (n int, fds []int, err error) {
	// The reverse of what unix.UnixRights does: the fds travel as int32s
	// inside a control message with header overhead, and unix.CmsgSpace
	// knows the correct total amount to expect.
	oob := make([]byte, unix.CmsgSpace(maxfds*4))
	n, noob, _, _, err := c.ReadMsgUnix(b, oob)
	if err != nil {
		return 0, nil, err
	}
	cms, err := unix.ParseSocketControlMessage(oob[:noob])
	if err != nil {
		return 0, nil, err
	}
	for _, cm := range cms {
		if cm.Header.Level != unix.SOL_SOCKET || cm.Header.Type != unix.SCM_RIGHTS {
			continue // nah, don't understand, skip it.
		}
		fds, err := unix.ParseUnixRights(&cm)
		if err != nil {
			return 0, nil, err
		}
		return n, fds, err
	}
	return n, nil, nil
}

// NewUnixConn wraps the passed unix domain socket fd into a
// [*net.UnixConn]-based [Conn]; otherwise, it returns an error.
//
// Why a UnixConn? Because it has the ReadMsgUnix and WriteMsgUnix
// methods for receiving and sending out-of-band data, also known as
// “control information” or “ancillary data” (for instance, see
// [sendmsg(2)]).
//
// Important: NewUnixConn always takes ownership of the passed file
// descriptor and will close it, even in case of error. Callers must not
// use, let alone close, the passed file descriptor afterwards.
//
// [sendmsg(2)]: https://www.man7.org/linux/man-pages/man2/sendmsg.2.html
func NewUnixConn(udsfd int, nickname string) (*Conn, error) {
	f := os.NewFile(uintptr(udsfd), nickname)
	if f == nil {
		return nil, errors.New("not a file descriptor")
	}
	defer func() { _ = f.Close() }()
	netconn, err := net.FilePacketConn(f)
	if err != nil {
		return nil, err
	}
	unixconn, ok := netconn.(*net.UnixConn)
	if !ok {
		_ = netconn.Close()
		return nil, errors.New("not a unix domain socket")
	}
	return &Conn{UnixConn: unixconn}, nil
}
