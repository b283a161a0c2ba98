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

package enterspace

import "errors"

// ErrUnsupported is the fixed error returned by [Join] on build targets
// that lack the setns(2) system call. It is always the identical value,
// regardless of the arguments passed to Join, and never derives from any
// kernel-reported error.
//
// ErrUnsupported additionally matches [errors.ErrUnsupported] when tested
// using [errors.Is], following the stdlib convention for operations that
// a particular build target cannot provide.
var ErrUnsupported error = unsupportedError{}

type unsupportedError struct{}

func (unsupportedError) Error() string {
	return "joining namespaces is not supported by this build target"
}

func (unsupportedError) Is(target error) bool {
	return target == errors.ErrUnsupported
}
