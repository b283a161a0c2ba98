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

//go:build !linux

package enterspace

// Join on this build target cannot ever join namespaces, as setns(2) was
// unavailable at build time. It ignores both its arguments without even
// looking at them, warns through the configured [log/slog] logger, and
// returns the fixed [ErrUnsupported]. No process state changes.
//
// The decision between this variant and the real one is made once, at
// build time, by build constraints; there is no runtime probing.
func Join(nsfd int, nstype int) error {
	slogger().Warn("setns(2) not supported at build time for this target, cannot join namespaces")
	return ErrUnsupported
}
