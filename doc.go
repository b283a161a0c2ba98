/*
Package enterspace joins existing Linux kernel namespaces.

The core of this package is a single primitive, [Join]: given an open file
descriptor referencing a namespace and a namespace type flag, it attaches
the calling thread to that namespace using [setns(2)]. Everything else in
this module exists around that primitive: discovering and validating
namespace references ([github.com/thediveo/enterspace/nsref]), passing
references between processes ([github.com/thediveo/enterspace/uds] and
[github.com/thediveo/enterspace/porter]), sequencing multiple joins in a
kernel-friendly order ([Set]), and temporarily executing functions in
other namespaces ([Do]).

# Joining

[Join] deliberately is a thin pass-through: it does not validate its
inputs beyond what the kernel enforces, it does not retry, and it does
not interpret kernel error codes. Whatever errno the kernel reports comes
back unmodified as a [golang.org/x/sys/unix.Errno] for the caller to
interpret. The descriptor is borrowed, never closed. Callers that need to
restore their previous namespace membership must capture a reference
beforehand, for instance using [Current].

On build targets without setns(2), and that is anything that isn't
Linux, [Join] compiles into a variant that never touches its arguments,
warns through the configured [log/slog] logger, and returns the fixed
[ErrUnsupported]. Which variant is active is decided at build time by
build constraints, never probed at run time.

# Thread Affinity

Namespace membership is a property of OS-level threads, not of Go
routines. Callers must lock their go routine to its thread using
[runtime.LockOSThread] before joining and must keep in mind that other
threads of the process do not follow. Mount namespaces additionally
require unsharing the thread's filesystem attributes first; the
[github.com/thediveo/enterspace/mntns] package handles this, preferably
on a throwaway thread.

PID namespaces deserve a special mention: joining one never moves the
calling thread itself, it only determines the PID namespace of future
child processes. And user namespaces cannot be joined at all by
multi-threaded processes, which Go processes invariably are; the kernel
will reject such attempts and [Join] passes the rejection through like
any other error.

# Background

The name follows the honorable tradition of short and preferably
misleading idiomatic Go package names: “enterspace” enters spaces, albeit
neither outer nor disk ones. It grew out of namespace test support
tooling, turned production-grade for container starters that need to
attach to prepared namespaces before executing their workloads.

[setns(2)]: https://man7.org/linux/man-pages/man2/setns.2.html
*/
package enterspace
