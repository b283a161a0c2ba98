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

package mntns

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MountSysfsRO mounts a new “sysfs” instance read-only onto “/sys”,
// matching the network namespace the calling OS-level thread is attached
// to at the time of mounting. The fresh instance then shows this network
// namespace's view in /sys/class/net.
//
// MountSysfsRO refuses to work while the calling thread is still
// attached to the process's original mount namespace, as it would
// otherwise overmount the host's /sys.
func MountSysfsRO() error {
	mntnsid, err := CurrentIno()
	if err != nil {
		return err
	}
	origid, err := Ino("/proc/self/ns/mnt")
	if err != nil {
		return err
	}
	if mntnsid == origid {
		return errors.New("current mount namespace must not be the process's original mount namespace")
	}
	if err := unix.Mount(
		"none", "/sys", "sysfs",
		unix.MS_RDONLY|unix.MS_NODEV|unix.MS_NOEXEC|unix.MS_NOSUID|unix.MS_RELATIME,
		""); err != nil {
		return fmt.Errorf("cannot mount new sysfs instance on /sys: %w", err)
	}
	return nil
}
