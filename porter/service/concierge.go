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
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/thediveo/enterspace"
	"github.com/thediveo/enterspace/nsref"
	"github.com/thediveo/enterspace/porter/api"
	"golang.org/x/sys/unix"
)

const fetchableSpaces = unix.CLONE_NEWCGROUP |
	unix.CLONE_NEWIPC |
	unix.CLONE_NEWNS |
	unix.CLONE_NEWNET |
	unix.CLONE_NEWPID |
	unix.CLONE_NEWTIME |
	unix.CLONE_NEWUSER |
	unix.CLONE_NEWUTS

// Concierge is a [Porter] answering requests from its own vantage point: it
// references the namespaces of target processes through its process
// filesystem view, and namespace paths through its own mount namespace.
type Concierge struct {
	// ProcRoot optionally specifies where the process filesystem with the
	// target processes is mounted; it defaults to “/proc”.
	ProcRoot string
	// Log optionally specifies the logger for service records; it defaults to
	// a text handler writing to os.Stderr at info level.
	Log *slog.Logger
}

var _ Porter = (*Concierge)(nil)

func (c *Concierge) Slog() *slog.Logger {
	if c.Log == nil {
		c.Log = slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return c.Log
}

// Refs opens references to the requested namespaces of the target process,
// returning them as open file descriptors. The target process is named
// either by its PID as seen by this concierge, or by a PID fd that then gets
// resolved in this concierge's PID namespace. Either all requested references
// could be fetched, or none at all.
func (c *Concierge) Refs(req *api.RefsRequest) api.Response {
	if req.PidFD > 0 {
		defer func() { _ = unix.Close(req.PidFD) }()
	}
	if req.Spaces & ^uint64(fetchableSpaces) != 0 {
		return &api.ErrorResponse{Reason: "unknown namespace selection"}
	}
	if req.Spaces&fetchableSpaces == 0 {
		return &api.ErrorResponse{Reason: "no namespaces selected"}
	}
	pid := req.PID
	if req.PidFD > 0 {
		if pid != 0 {
			return &api.ErrorResponse{Reason: "request names both a PID and a PID fd"}
		}
		var err error
		pid, err = pidOfPidfd(req.PidFD)
		if err != nil {
			c.Slog().Error("cannot resolve PID fd",
				slog.Int("PID", os.Getpid()),
				slog.String("err", err.Error()))
			return &api.ErrorResponse{Reason: "failed to resolve PID fd, reason: " + err.Error()}
		}
	}
	if pid <= 0 {
		return &api.ErrorResponse{Reason: "no target process specified"}
	}

	resp := &api.RefsResponse{}
	for _, space := range []struct {
		typ int
		fd  *int
	}{
		{unix.CLONE_NEWCGROUP, &resp.Cgroup},
		{unix.CLONE_NEWIPC, &resp.IPC},
		{unix.CLONE_NEWNS, &resp.Mnt},
		{unix.CLONE_NEWNET, &resp.Net},
		{unix.CLONE_NEWPID, &resp.PID},
		{unix.CLONE_NEWTIME, &resp.Time},
		{unix.CLONE_NEWUSER, &resp.User},
		{unix.CLONE_NEWUTS, &resp.UTS},
	} {
		if req.Spaces&uint64(space.typ) == 0 {
			continue
		}
		name := enterspace.Name(space.typ)
		fd, err := unix.Open(
			fmt.Sprintf("%s/%d/ns/%s", c.procRoot(), pid, name),
			unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			// All or nothing: give back what we fetched so far.
			for _, fd := range resp.EncodeFds() {
				_ = unix.Close(fd)
			}
			c.Slog().Error("cannot fetch namespace reference",
				slog.Int("PID", os.Getpid()),
				slog.String("type", name),
				slog.Int("pid", pid),
				slog.String("err", err.Error()))
			return &api.ErrorResponse{
				Reason: fmt.Sprintf("failed to reference %s namespace of process %d, reason: %s",
					name, pid, err.Error()),
			}
		}
		*space.fd = fd
	}
	return resp
}

// Path opens a reference to the namespace at the path named in the request,
// resolved in this concierge's own mount namespace. The path must reference a
// namespace, anything else gets refused.
func (c *Concierge) Path(req *api.PathRequest) api.Response {
	if req.Path == "" {
		return &api.ErrorResponse{Reason: "no path specified"}
	}
	ref, err := nsref.Open(req.Path)
	if err != nil {
		c.Slog().Error("cannot reference namespace",
			slog.Int("PID", os.Getpid()),
			slog.String("path", req.Path),
			slog.String("err", err.Error()))
		return &api.ErrorResponse{Reason: "failed to reference namespace, reason: " + err.Error()}
	}
	defer func() { _ = ref.Close() }()
	// The response needs a fd of its own that it can hand over to the kernel
	// for transfer, surviving the reference close.
	fd, err := unix.Dup(ref.FD())
	if err != nil {
		c.Slog().Error("cannot duplicate namespace reference",
			slog.Int("PID", os.Getpid()),
			slog.String("err", err.Error()))
		return &api.ErrorResponse{Reason: "failed to duplicate namespace reference, reason: " + err.Error()}
	}
	return &api.PathResponse{Ref: fd}
}

func (c *Concierge) procRoot() string {
	return cmp.Or(c.ProcRoot, "/proc")
}

// pidOfPidfd returns the PID that the passed PID fd references, as seen in
// this process's PID namespace. Introspection of our own fds always works
// through /proc/self, independent of any ProcRoot configured for viewing
// target processes.
func pidOfPidfd(pidfd int) (int, error) {
	link, err := os.Readlink("/proc/self/fd/" + strconv.Itoa(pidfd))
	if err != nil {
		return 0, fmt.Errorf("cannot determine type of fd %d, reason: %w", pidfd, err)
	}
	if link != "anon_inode:[pidfd]" {
		return 0, fmt.Errorf("fd %d is not a PID fd", pidfd)
	}
	fdinfo, err := os.ReadFile("/proc/self/fdinfo/" + strconv.Itoa(pidfd))
	if err != nil {
		return 0, fmt.Errorf("cannot read fdinfo of fd %d, reason: %w", pidfd, err)
	}
	for line := range strings.Lines(string(fdinfo)) {
		value, ok := strings.CutPrefix(line, "Pid:\t")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSuffix(value, "\n"))
		if err != nil {
			return 0, fmt.Errorf("malformed fdinfo Pid field %q", value)
		}
		if pid <= 0 {
			// Zero: the process lives outside our PID namespace; -1: it is
			// already gone.
			return 0, fmt.Errorf("process referenced by PID fd %d is unreachable", pidfd)
		}
		return pid, nil
	}
	return 0, fmt.Errorf("fdinfo of PID fd %d lacks a Pid field", pidfd)
}
