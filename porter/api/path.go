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
	"golang.org/x/sys/unix"
)

// PathRequest asks the porter to open a namespace reference at the given
// filesystem path, as resolved in the porter's mount namespace. Typical paths
// are the /proc/[PID]/ns/[TYPE] pseudo files and bindmounted namespaces.
type PathRequest struct {
	Path string
}

// PathResponse carries the opened namespace reference fd; the fd travels
// out-of-band with the response message.
//
// Please note that the receiver takes ownership of the reference and thus is
// responsible to close it when not needing it anymore.
type PathResponse struct {
	Ref int
}

var _ Request = (*PathRequest)(nil)

func (p PathRequest) request() {}

var (
	_ Response   = (*PathResponse)(nil)
	_ FdsEncoder = (*PathResponse)(nil)
	_ FdsDecoder = (*PathResponse)(nil)
)

func (p PathResponse) response() {}

// EncodeFds returns the namespace reference fd for out-of-band transfer,
// zeroing the Ref field so it doesn't additionally get transferred in-band by
// gob.
func (p *PathResponse) EncodeFds() []int {
	return auxiliaryFds(nil).borrow(&p.Ref)
}

// DecodeFds slots the out-of-band fd received with the response back into the
// Ref field, closing any surplus fds.
func (p *PathResponse) DecodeFds(fds []int) {
	for idx, fd := range fds {
		if idx == 0 {
			p.Ref = fd
			continue
		}
		_ = unix.Close(fd)
	}
}
