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

package enterspace

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/sys/unix"
)

// Name returns the name of the type of namespace specified as one of the
// unix.CLONE_NEW* constants, as it appears in the names of the
// /proc/[pid]/ns/* pseudo files. It returns "" for anything else,
// including the 0 “any type” wildcard.
func Name(typ int) string {
	switch typ {
	case unix.CLONE_NEWCGROUP:
		return "cgroup"
	case unix.CLONE_NEWIPC:
		return "ipc"
	case unix.CLONE_NEWNS:
		return "mnt"
	case unix.CLONE_NEWNET:
		return "net"
	case unix.CLONE_NEWPID:
		return "pid"
	case unix.CLONE_NEWTIME:
		return "time"
	case unix.CLONE_NEWUSER:
		return "user"
	case unix.CLONE_NEWUTS:
		return "uts"
	}
	return ""
}

// TypeByName returns the unix.CLONE_NEW* constant for the type of
// namespace named as in the /proc/[pid]/ns/* pseudo files, otherwise 0.
func TypeByName(name string) int {
	switch name {
	case "cgroup":
		return unix.CLONE_NEWCGROUP
	case "ipc":
		return unix.CLONE_NEWIPC
	case "mnt":
		return unix.CLONE_NEWNS
	case "net":
		return unix.CLONE_NEWNET
	case "pid":
		return unix.CLONE_NEWPID
	case "time":
		return unix.CLONE_NEWTIME
	case "user":
		return unix.CLONE_NEWUSER
	case "uts":
		return unix.CLONE_NEWUTS
	}
	return 0
}

// TypeFromOCI returns the unix.CLONE_NEW* constant for a namespace type
// as named by the OCI runtime specification, otherwise 0. The OCI names
// differ from the kernel's procfs names for two types of namespaces:
// “mount” instead of “mnt”, and “network” instead of “net”.
func TypeFromOCI(typ specs.LinuxNamespaceType) int {
	switch typ {
	case specs.CgroupNamespace:
		return unix.CLONE_NEWCGROUP
	case specs.IPCNamespace:
		return unix.CLONE_NEWIPC
	case specs.MountNamespace:
		return unix.CLONE_NEWNS
	case specs.NetworkNamespace:
		return unix.CLONE_NEWNET
	case specs.PIDNamespace:
		return unix.CLONE_NEWPID
	case specs.TimeNamespace:
		return unix.CLONE_NEWTIME
	case specs.UserNamespace:
		return unix.CLONE_NEWUSER
	case specs.UTSNamespace:
		return unix.CLONE_NEWUTS
	}
	return 0
}

// Types returns the types of namespaces currently defined by the Linux
// kernel, in no particular order.
func Types() []int {
	return []int{
		unix.CLONE_NEWCGROUP,
		unix.CLONE_NEWIPC,
		unix.CLONE_NEWNS,
		unix.CLONE_NEWNET,
		unix.CLONE_NEWPID,
		unix.CLONE_NEWTIME,
		unix.CLONE_NEWUSER,
		unix.CLONE_NEWUTS,
	}
}
