/*
Package netns eases working with Linux kernel network namespaces: it
wraps the generic [github.com/thediveo/enterspace] operations with the
network namespace type already filled in, so call sites don't need to
drag [unix.CLONE_NEWNET] around.

The most common pattern is to run a function connected to some other
network namespace, without disturbing the rest of the process:

	err := netns.Do(func() error {
	    // ...create sockets, query interfaces, ...
	    return nil
	}, netnsfd)

[Do] temporarily switches only the calling go routine's OS-level thread,
so all other go routines keep humming along in the process's network
namespace. Sockets created inside fn stay attached to the network
namespace they were created in, even after fn returns, for their whole
remaining lifetime.

For switching a thread permanently, such as from a thread-locked main go
routine before spinning up listeners, use [Join] instead.

[unix.CLONE_NEWNET]: https://pkg.go.dev/golang.org/x/sys/unix#CLONE_NEWNET
*/
package netns
