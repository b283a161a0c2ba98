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

package enterspace_test

import (
	"errors"
	"fmt"

	"github.com/thediveo/enterspace"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("unsupported build targets", func() {

	It("tells what's wrong", func() {
		Expect(enterspace.ErrUnsupported).To(
			MatchError(ContainSubstring("not supported by this build target")))
	})

	It("matches errors.ErrUnsupported", func() {
		Expect(errors.Is(enterspace.ErrUnsupported, errors.ErrUnsupported)).To(BeTrue())
		Expect(errors.Is(fmt.Errorf("gone pear-shaped: %w", enterspace.ErrUnsupported),
			errors.ErrUnsupported)).To(BeTrue())
	})

	It("doesn't match unrelated errors", func() {
		Expect(errors.Is(enterspace.ErrUnsupported, errors.New("ειδος"))).To(BeFalse())
		Expect(errors.Is(errors.New("not this one"), enterspace.ErrUnsupported)).To(BeFalse())
	})

})
