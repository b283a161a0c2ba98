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

package porter

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/thediveo/enterspace/porter/api"
	"github.com/thediveo/enterspace/porter/service"
	"github.com/thediveo/enterspace/porter/wire"
	"github.com/thediveo/enterspace/uds"
	"golang.org/x/sys/unix"
)

// maxResponseFds is the largest number of fds any single response can carry,
// that is, one fd for each type of namespace.
const maxResponseFds = 8

// Client connects to exactly one porter service instance, which might be
// in-process or a separate process.
//
// # Important
//
// Client cannot(!) be used concurrently.
type Client struct {
	conn     *uds.Conn
	enc      *wire.Encoder
	dec      *wire.Decoder
	command  string
	procRoot string
	log      *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// New returns a new client connected to a new porter service instance. By
// default, the service runs on a goroutine inside this process; the
// [WithCommand] option spawns a helper service process instead. The service
// instance terminates either when the passed context gets cancelled or when
// the Close method of the returned client object is called.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	near, far, err := uds.NewPair()
	if err != nil {
		return nil, fmt.Errorf("cannot create connected unix domain socket pair: %w", err)
	}
	if c.command == "" {
		go func() {
			service.Serve(ctx, far, &service.Concierge{
				ProcRoot: c.procRoot,
				Log:      c.log,
			})
			_ = far.Close()
		}()
	} else {
		err := c.spawn(ctx, far)
		// Whatever the outcome, we must let go of the far end: on success,
		// only the service process may keep it open, so that it notices the
		// client disconnecting.
		_ = far.Close()
		if err != nil {
			_ = near.Close()
			return nil, err
		}
	}

	c.conn = near
	c.enc = wire.NewEncoder()
	c.dec = wire.NewDecoder()
	return c, nil
}

// spawn starts the helper service process, passing it its end of the
// connection as fd 3.
func (c *Client) spawn(ctx context.Context, far *uds.Conn) error {
	farf, err := far.File()
	if err != nil {
		return fmt.Errorf("cannot fetch service *os.File: %w", err)
	}
	defer func() { _ = farf.Close() }()

	cmd := exec.Command(c.command)
	cmd.Stdout = cmp.Or(c.stdout, io.Writer(os.Stdout))
	cmd.Stderr = cmp.Or(c.stderr, io.Writer(os.Stderr))
	cmd.ExtraFiles = []*os.File{farf}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("cannot start porter service process: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = cmd.Process.Kill() })
	go func() {
		defer stop()
		_ = cmd.Wait()
	}()
	return nil
}

// Close the connection to the porter service instance. This will cause the
// previously connected porter service instance to automatically terminate.
//
// Please note that all Client instances are independent, so closing one will
// not afflict any other Client instance.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Refs fetches references to the selected namespaces of the process with the
// passed PID, as seen by the connected porter service. The spaces selection
// ors together the CLONE_NEWxxx constants of the wanted namespace types.
//
// The caller owns the file descriptors in the returned response and thus is
// responsible to close them when not needing them anymore.
func (c *Client) Refs(pid int, spaces uint64) (*api.RefsResponse, error) {
	return do[*api.RefsResponse](c, &api.RefsRequest{PID: pid, Spaces: spaces}, "refs")
}

// RefsOfPidfd fetches references to the selected namespaces of the process
// referenced by the passed PID fd. The PID fd travels out-of-band to the
// service, which resolves it in its own PID namespace; the target process
// thus doesn't need a stable PID in any namespace known to the client.
//
// RefsOfPidfd only borrows the PID fd; ownership stays with the caller. The
// caller owns the file descriptors in the returned response.
func (c *Client) RefsOfPidfd(pidfd int, spaces uint64) (*api.RefsResponse, error) {
	return do[*api.RefsResponse](c, &api.RefsRequest{PidFD: pidfd, Spaces: spaces}, "refs")
}

// Path fetches a reference to the namespace at the passed path, as resolved
// in the porter service's mount namespace.
//
// The caller owns the returned file descriptor and thus is responsible to
// close it when not needing it anymore.
func (c *Client) Path(path string) (int, error) {
	resp, err := do[*api.PathResponse](c, &api.PathRequest{Path: path}, "path")
	if err != nil {
		return 0, err
	}
	return resp.Ref, nil
}

// do the passed API request, returning a non-failure API response; or
// otherwise an error.
func (c *Client) do(req api.Request, name string) (api.Response, error) {
	// Pull any fd out of the request for out-of-band transfer before
	// encoding, so that only a zero value remains to travel in-band. The fd
	// is only borrowed: the kernel duplicates it into the transfer, so it
	// stays with its owner.
	var reqfds []int
	if fdsencoder, ok := req.(api.FdsEncoder); ok {
		reqfds = fdsencoder.EncodeFds()
	}
	msg, err := c.enc.Encode(&req)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %s request: %w", name, err)
	}
	if _, err := c.conn.SendWithFds(msg, reqfds...); err != nil {
		return nil, fmt.Errorf("cannot send %s request: %w", name, err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return nil, fmt.Errorf("cannot receive %s response: %w", name, err)
	}
	n, fds, err := c.conn.ReceiveWithFds(c.dec.Buffer(), maxResponseFds)
	if err != nil {
		return nil, fmt.Errorf("cannot receive %s response: %w", name, err)
	}
	var resp api.Response
	if err := c.dec.Decode(n, &resp); err != nil {
		closeFds(fds)
		return nil, fmt.Errorf("cannot decode %s response: %w", name, err)
	}
	if errresp, ok := resp.(*api.ErrorResponse); ok {
		closeFds(fds)
		return nil, fmt.Errorf("%s request failed: %s", name, errresp.Reason)
	}
	if r, ok := resp.(api.FdsDecoder); ok {
		r.DecodeFds(fds)
	} else {
		closeFds(fds)
	}
	return resp, nil
}

// do the passed API request on the specified client, returning a response of
// type R; or otherwise an error.
func do[R any](c *Client, req api.Request, name string) (R, error) {
	resp, err := c.do(req, name)
	if err != nil {
		var zero R
		return zero, err
	}
	r, ok := resp.(R)
	if !ok {
		var zero R
		return zero, fmt.Errorf("unexpected %T response to %s request", resp, name)
	}
	return r, nil
}

func closeFds(fds []int) {
	for _, fd := range fds {
		_ = unix.Close(fd)
	}
}
