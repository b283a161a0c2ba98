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

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/thediveo/enterspace/porter/api"
	"github.com/thediveo/enterspace/porter/wire"
	"github.com/thediveo/enterspace/uds"
	"golang.org/x/sys/unix"
)

// Porter services the porter API. Handlers take ownership of any file
// descriptor slotted into their request, such as a PID fd received
// out-of-band, and must close it before returning.
type Porter interface {
	Refs(*api.RefsRequest) api.Response
	Path(*api.PathRequest) api.Response
	Slog() *slog.Logger
}

// Serve services requests on the passed *uds.Conn until the client
// disconnects or the context gets cancelled, using the passed porter to carry
// out the requests.
//
// Since this function supports testing, it generates slog records over the
// course of its operation; direct the porter's logger at the GinkgoWriter to
// see them only for failing tests, or for all tests when running with
// “-ginkgo.v”.
func Serve(ctx context.Context, conn *uds.Conn, porter Porter) {
	id := petname.Generate(2, "-")
	porter.Slog().Info("porter serving loop started", slog.String("porter-id", id))
	defer func() {
		porter.Slog().Info("porter serving loop terminated", slog.String("porter-id", id))
	}()

	enc := wire.NewEncoder()
	dec := wire.NewDecoder()

	for {
		// Check and exit if the context is done by now.
		select {
		case <-ctx.Done():
			porter.Slog().Info("context cancelled", slog.String("porter-id", id))
			return
		default:
		}
		// Now try to read in the next service request, together with at most
		// one fd accompanying it out-of-band (a PID fd identifying a target
		// process). We set a read deadline so that we can check our context
		// from time to time. If we hit the deadline that's fine, we simply
		// restart.
		if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
			porter.Slog().Error("cannot set deadline",
				slog.String("porter-id", id),
				slog.String("err", err.Error()))
			return
		}
		n, fds, err := conn.ReceiveWithFds(dec.Buffer(), 1)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}
			// https://go.dev/wiki/ErrorValueFAQ
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				porter.Slog().Info("client disconnected", slog.String("porter-id", id))
				return
			}
			porter.Slog().Error("cannot receive",
				slog.String("porter-id", id),
				slog.String("err", err.Error()))
			return
		}
		// Try to decode the service request contained in the received
		// message. Please note that req will hold a pointer to a request
		// value, as that is what gets registered with gob.
		var req api.Request
		if err := dec.Decode(n, &req); err != nil {
			for _, fd := range fds {
				_ = unix.Close(fd)
			}
			porter.Slog().Error("cannot decode incoming request",
				slog.String("porter-id", id),
				slog.String("err", err.Error()))
			return
		}
		// Slot a received fd into the request, where the request can take
		// one; otherwise, close stray fds right away as to not leak them.
		if fdsdecoder, ok := req.(api.FdsDecoder); ok {
			fdsdecoder.DecodeFds(fds)
		} else {
			for _, fd := range fds {
				_ = unix.Close(fd)
			}
		}
		// Handle the service request and get a response.
		porter.Slog().Info("serving request",
			slog.String("porter-id", id),
			slog.String("service", fmt.Sprintf("%T", req)))
		var resp api.Response
		switch req := req.(type) {
		case *api.RefsRequest:
			resp = porter.Refs(req)
		case *api.PathRequest:
			resp = porter.Path(req)
		default:
			porter.Slog().Error("unhandled request",
				slog.String("porter-id", id),
				slog.String("type", fmt.Sprintf("%T", req)))
			return
		}
		// Pull any file descriptors out of the response for out-of-band
		// transfer before encoding, so that only zero values remain to be
		// transferred in-band.
		var fds2 []int
		if fdsencoder, ok := resp.(api.FdsEncoder); ok {
			fds2 = fdsencoder.EncodeFds()
		}
		// Encode the response; pay attention to passing a pointer to the
		// interface, see also the gob "interface" example,
		// https://pkg.go.dev/encoding/gob#example-package-Interface
		msg, err := enc.Encode(&resp)
		if err != nil {
			for _, fd := range fds2 {
				_ = unix.Close(fd)
			}
			porter.Slog().Error("cannot encode response",
				slog.String("porter-id", id),
				slog.String("err", err.Error()))
			return
		}
		_, err = conn.SendWithFds(msg, fds2...)
		// Make sure to close the file descriptors because they're now in
		// transit with the kernel in charge, or the kernel didn't take
		// ownership and then we need to close them also as to not leak them.
		for _, fd := range fds2 {
			_ = unix.Close(fd)
		}
		if err != nil {
			porter.Slog().Error("cannot send",
				slog.String("porter-id", id),
				slog.String("err", err.Error()))
			return
		}
	}
}
