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

package nstest

import (
	"fmt"

	"github.com/onsi/gomega/gcustom"
	"github.com/onsi/gomega/types"
	"github.com/thediveo/enterspace"
)

// BeANamespace succeeds when the actual value is an open file descriptor
// referencing a namespace of the passed type.
func BeANamespace(typ int) types.GomegaMatcher {
	return gcustom.MakeMatcher(func(fd int) (bool, error) {
		actualType, err := enterspace.TypeOf(fd)
		if err != nil {
			return false, nil
		}
		return actualType == typ, nil
	}).WithMessage(fmt.Sprintf("reference a %s namespace", enterspace.Name(typ)))
}
