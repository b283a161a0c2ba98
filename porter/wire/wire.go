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

// Package wire implements the message codec used on porter connections: each
// message is a single gob-encoded value, sent and received as one datagram.
//
// Gob streams transmit type descriptions only once, on first use. An [Encoder]
// therefore must stay paired with exactly one [Decoder] on the remote end for
// the lifetime of a connection, with all messages delivered in order.
package wire

import (
	"bytes"
	"encoding/gob"
)

// blocksize is the size of a single message block; messages must fit into a
// single block.
const blocksize = 8192

// Encoder encodes values in gob format into an internal buffer, returning the
// encoded messages as byte slices ready for sending.
type Encoder struct {
	buff bytes.Buffer
	enc  *gob.Encoder
}

// NewEncoder returns a new Encoder with its internal buffer primed to the
// message block size.
func NewEncoder() *Encoder {
	enc := &Encoder{}
	enc.buff.Grow(blocksize)
	enc.enc = gob.NewEncoder(&enc.buff)
	return enc
}

// Encode the passed value into the encoder's buffer, returning the encoded
// message as a byte slice. The returned slice becomes invalid with the next
// call to Encode.
func (e *Encoder) Encode(v any) ([]byte, error) {
	e.buff.Reset()
	if err := e.enc.Encode(v); err != nil {
		return nil, err
	}
	return e.buff.Bytes(), nil
}

// Decoder decodes values in gob format from an internal receive buffer.
type Decoder struct {
	buff []byte
	r    *bytes.Reader
	dec  *gob.Decoder
}

// NewDecoder returns a new Decoder with an internal receive buffer of message
// block size.
func NewDecoder() *Decoder {
	buff := make([]byte, blocksize)
	r := bytes.NewReader(buff)
	return &Decoder{
		buff: buff,
		r:    r,
		dec:  gob.NewDecoder(r),
	}
}

// Buffer returns the decoder's receive buffer; receive the next message into
// this buffer, then call [Decoder.Decode] with the number of bytes received.
func (d *Decoder) Buffer() []byte {
	return d.buff
}

// Decode the message currently stored in the first n bytes of the decoder's
// receive buffer into the value pointed to by v.
func (d *Decoder) Decode(n int, v any) error {
	d.r.Reset(d.buff[:n])
	return d.dec.Decode(v)
}
