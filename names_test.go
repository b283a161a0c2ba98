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

//go:build linux

package enterspace_test

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type names of namespaces", func() {

	DescribeTable("type names",
		func(typ int, expected string) {
			Expect(enterspace.Name(typ)).To(Equal(expected))
		},
		Entry(nil, 0, ""),
		Entry(nil, unix.CLONE_NEWCGROUP, "cgroup"),
		Entry(nil, unix.CLONE_NEWIPC, "ipc"),
		Entry(nil, unix.CLONE_NEWNS, "mnt"),
		Entry(nil, unix.CLONE_NEWNET, "net"),
		Entry(nil, unix.CLONE_NEWPID, "pid"),
		Entry(nil, unix.CLONE_NEWTIME, "time"),
		Entry(nil, unix.CLONE_NEWUSER, "user"),
		Entry(nil, unix.CLONE_NEWUTS, "uts"),
	)

	DescribeTable("types from names",
		func(name string, expected int) {
			Expect(enterspace.TypeByName(name)).To(Equal(expected))
		},
		Entry(nil, "", 0),
		Entry(nil, "grmpf", 0),
		Entry(nil, "cgroup", unix.CLONE_NEWCGROUP),
		Entry(nil, "ipc", unix.CLONE_NEWIPC),
		Entry(nil, "mnt", unix.CLONE_NEWNS),
		Entry(nil, "net", unix.CLONE_NEWNET),
		Entry(nil, "pid", unix.CLONE_NEWPID),
		Entry(nil, "time", unix.CLONE_NEWTIME),
		Entry(nil, "user", unix.CLONE_NEWUSER),
		Entry(nil, "uts", unix.CLONE_NEWUTS),
	)

	DescribeTable("types from OCI runtime-spec names",
		func(typ specs.LinuxNamespaceType, expected int) {
			Expect(enterspace.TypeFromOCI(typ)).To(Equal(expected))
		},
		Entry(nil, specs.LinuxNamespaceType(""), 0),
		Entry(nil, specs.LinuxNamespaceType("warp"), 0),
		Entry(nil, specs.CgroupNamespace, unix.CLONE_NEWCGROUP),
		Entry(nil, specs.IPCNamespace, unix.CLONE_NEWIPC),
		Entry(nil, specs.MountNamespace, unix.CLONE_NEWNS),
		Entry(nil, specs.NetworkNamespace, unix.CLONE_NEWNET),
		Entry(nil, specs.PIDNamespace, unix.CLONE_NEWPID),
		Entry(nil, specs.TimeNamespace, unix.CLONE_NEWTIME),
		Entry(nil, specs.UserNamespace, unix.CLONE_NEWUSER),
		Entry(nil, specs.UTSNamespace, unix.CLONE_NEWUTS),
	)

	It("knows all types of namespaces by name", func() {
		types := enterspace.Types()
		Expect(types).To(HaveLen(8))
		for _, typ := range types {
			Expect(enterspace.Name(typ)).NotTo(BeEmpty())
			Expect(enterspace.TypeByName(enterspace.Name(typ))).To(Equal(typ))
		}
	})

})
