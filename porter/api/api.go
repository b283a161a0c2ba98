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
	"encoding/gob"
)

type (
	// FdsEncoder is implemented by messages that carry file descriptors;
	// EncodeFds removes the fds from the message fields and returns them for
	// sending as out-of-band data.
	FdsEncoder interface{ EncodeFds() (fds []int) }
	// FdsDecoder is implemented by messages that carry file descriptors;
	// DecodeFds moves the fds received as out-of-band data back into their
	// message fields.
	FdsDecoder interface{ DecodeFds(fds []int) }
)

type (
	Request  interface{ request() }
	Response interface{ response() }
)

// ErrorResponse can be transferred in place of any other service response,
// telling the client why its request failed.
type ErrorResponse struct {
	Reason string
}

var _ Response = (*ErrorResponse)(nil)

func (er ErrorResponse) response() {}

// Register the individual request and response struct types so that we can
// use interface polymorphy when receiving requests or responses. Note that
// gob registers the pointer types, so received interface values always hold
// pointers to messages, regardless of whether the sender encoded a message
// value or a pointer to it.
func init() {
	gob.Register(&ErrorResponse{})

	gob.Register(&RefsRequest{})
	gob.Register(&RefsResponse{})
	gob.Register(&PathRequest{})
	gob.Register(&PathResponse{})

	gob.Register(&DeadLetterRequest{})
}

// DeadLetterRequest is a valid protocol message no porter will ever handle;
// it exists to exercise how services react to requests outside their remit.
type DeadLetterRequest struct{}

var _ Request = (*DeadLetterRequest)(nil)

func (d DeadLetterRequest) request() {}
