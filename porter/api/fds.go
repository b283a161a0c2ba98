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

// auxiliaryFds collects the open file descriptors of a message for sending
// them as out-of-band auxiliary data.
type auxiliaryFds []int

// borrow appends the fd to the list if it is open (>0), zeroing the fd in its
// original message field at the same time: the fd must travel out-of-band
// only, never in-band too. A fd value that isn't open leaves the list
// unchanged.
func (f auxiliaryFds) borrow(fd *int) auxiliaryFds {
	if *fd <= 0 {
		return f
	}
	fds := append(f, *fd)
	*fd = 0
	return fds
}
