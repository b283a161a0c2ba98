/*
Package mntns eases working with Linux kernel mount namespaces: it wraps
the generic [github.com/thediveo/enterspace] operations with the mount
namespace type already filled in, and deals with the mount namespace
peculiarities that the other kinds of namespaces don't have.

Mount namespaces are special in that the kernel refuses to switch a
thread into a different mount namespace as long as this thread still
shares its filesystem attributes (root directory, current directory,
umask) with other threads, as all threads of a Go program initially do.
[Do] hides this completely by running the passed function on a
throw-away thread with its own filesystem attributes. [Join] is for
permanently switching a thread-locked go routine instead and requires
[DetachFS] to be called first.

Since [unshare(2)]'ing the filesystem attributes cannot be undone, a
detached thread must stay locked to its go routine for the rest of the
program's lifetime, so the Go scheduler never runs other go routines on
it.

[unshare(2)]: https://man7.org/linux/man-pages/man2/unshare.2.html
*/
package mntns
