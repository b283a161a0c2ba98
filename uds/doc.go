/*
Package uds moves open file descriptors between processes over
peer-to-peer pairs of (stream) unix domain sockets, using SCM_RIGHTS
control messages. It is the transport underneath the porter protocol,
carrying namespace fds from a porter service to its clients.

Stream sockets, as opposed to datagram sockets, additionally tell us
when the process on the “other” side has gone away, wanted or not.

# Trivia

“[UDS]” is short for “unix domain socket”.

[UDS]: https://en.wikipedia.org/wiki/Unix_domain_socket
*/
package uds
