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
	"errors"
	"io"
	"log/slog"
)

// Option configures a new [Client] while it connects to its porter service
// instance, see [New].
type Option func(*Client) error

// WithCommand spawns the porter service as a separate helper process running
// the named binary, instead of serving in-process. The binary usually is a
// build of enterspace/porter/service/cmd; it receives its end of the
// connection to the client as fd 3.
func WithCommand(path string) Option {
	return func(c *Client) error {
		if path == "" {
			return errors.New("WithCommand: empty command path")
		}
		c.command = path
		return nil
	}
}

// WithStdout redirects the stdout of a helper service process to the passed
// writer; it defaults to os.Stdout. WithStdout has no effect on in-process
// services.
func WithStdout(w io.Writer) Option {
	return func(c *Client) error {
		c.stdout = w
		return nil
	}
}

// WithStderr redirects the stderr of a helper service process to the passed
// writer; it defaults to os.Stderr. WithStderr has no effect on in-process
// services.
func WithStderr(w io.Writer) Option {
	return func(c *Client) error {
		c.stderr = w
		return nil
	}
}

// WithProcRoot specifies where an in-process service finds the process
// filesystem with its target processes; it defaults to “/proc”. WithProcRoot
// has no effect on helper service processes spawned with [WithCommand].
func WithProcRoot(root string) Option {
	return func(c *Client) error {
		c.procRoot = root
		return nil
	}
}

// WithLogger specifies the logger an in-process service emits its records
// with; it defaults to a text handler writing to os.Stderr at info level.
// WithLogger has no effect on helper service processes spawned with
// [WithCommand], as their records go to their stderr.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) error {
		c.log = log
		return nil
	}
}
