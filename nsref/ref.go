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

package nsref

import (
	"fmt"
	"strconv"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/thediveo/enterspace"
	"golang.org/x/sys/unix"
)

// Ref is an open reference to a Linux kernel namespace. In contrast to
// the bare fd-taking functions of the enterspace package, a Ref owns its
// underlying file descriptor: closing is the Ref's job and nobody
// else's. Everything a Ref's fd gets passed into, including
// [Ref.Join], only ever borrows it.
type Ref struct {
	fd   int
	path string
}

// Open returns a reference to the namespace found at the passed VFS
// path, such as a procfs ns link or a bind-mounted namespace kept
// alive beyond its last process. Open verifies that the path leads
// onto a namespace file system, rejecting ordinary files.
func Open(path string) (*Ref, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open namespace reference: %w", err)
	}
	var fs unix.Statfs_t
	if err := unix.Fstatfs(fd, &fs); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("cannot verify namespace reference %q: %w", path, err)
	}
	switch fs.Type {
	case unix.NSFS_MAGIC, unix.PROC_SUPER_MAGIC:
		// procfs covers kernels from back when the ns links didn't yet
		// resolve into the dedicated nsfs.
	default:
		_ = unix.Close(fd)
		return nil, fmt.Errorf("%q isn't on a namespace file system", path)
	}
	return &Ref{fd: fd, path: path}, nil
}

// OpenProcess returns a reference to the namespace of the given type
// that the process with the passed PID is attached to, via the procfs
// ns links.
func OpenProcess(pid int, typ int) (*Ref, error) {
	name := enterspace.Name(typ)
	if name == "" {
		return nil, fmt.Errorf("unknown type of namespace %d", typ)
	}
	return Open("/proc/" + strconv.Itoa(pid) + "/ns/" + name)
}

// OpenThreadSelf returns a reference to the namespace of the given type
// the calling OS-level thread is currently attached to. The caller's go
// routine should be thread-locked for the result to be meaningful.
func OpenThreadSelf(typ int) (*Ref, error) {
	name := enterspace.Name(typ)
	if name == "" {
		return nil, fmt.Errorf("unknown type of namespace %d", typ)
	}
	return Open("/proc/thread-self/ns/" + name)
}

// OpenOCI returns a reference to the namespace named by an OCI
// runtime-spec namespace configuration entry. The entry must specify a
// path: entries without a path tell the launcher to create a fresh
// namespace, and creating isn't this package's job. OpenOCI also
// verifies that the path really leads to a namespace of the type the
// entry declares.
func OpenOCI(ns specs.LinuxNamespace) (*Ref, error) {
	typ := enterspace.TypeFromOCI(ns.Type)
	if typ == 0 {
		return nil, fmt.Errorf("unknown OCI namespace type %q", ns.Type)
	}
	if ns.Path == "" {
		return nil, fmt.Errorf("cannot reference an OCI %s namespace without a path", ns.Type)
	}
	ref, err := Open(ns.Path)
	if err != nil {
		return nil, err
	}
	reftyp, err := ref.Type()
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	if reftyp != typ {
		_ = ref.Close()
		return nil, fmt.Errorf("%q references a %s namespace, not a %s namespace",
			ns.Path, enterspace.Name(reftyp), enterspace.Name(typ))
	}
	return ref, nil
}

// FD returns the file descriptor underlying this reference, for
// borrowing only: ownership stays with the Ref, so don't close it.
func (r *Ref) FD() int { return r.fd }

// Close releases the underlying file descriptor. Closing an already
// closed Ref does nothing.
func (r *Ref) Close() error {
	if r.fd < 0 {
		return nil
	}
	err := unix.Close(r.fd)
	r.fd = -1
	return err
}

// Type returns the CLONE_NEW* constant of the type of the referenced
// namespace, as told by the kernel.
func (r *Ref) Type() (int, error) {
	return enterspace.TypeOf(r.fd)
}

// Ino returns the identification (inode number) of the referenced
// namespace.
func (r *Ref) Ino() (uint64, error) {
	return enterspace.Ino(r.fd)
}

// Join attaches the calling OS-level thread to the referenced
// namespace, see [enterspace.Join]. The Ref stays open, ready for
// joining again.
func (r *Ref) Join(nstype int) error {
	return enterspace.Join(r.fd, nstype)
}

// String returns the textual "type:[inode]" namespace identification,
// falling back to the origin path, when the kernel cannot be asked
// (anymore) about the reference.
func (r *Ref) String() string {
	typ, terr := r.Type()
	ino, ierr := r.Ino()
	if terr == nil && ierr == nil {
		return fmt.Sprintf("%s:[%d]", enterspace.Name(typ), ino)
	}
	if r.path != "" {
		return r.path
	}
	return "fd " + strconv.Itoa(r.fd)
}
