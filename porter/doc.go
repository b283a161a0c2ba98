/*
Package porter provides a client to talk to so-called “porter services” that
fetch references to existing Linux kernel namespaces on behalf of their
clients: the namespaces of target processes, identified by PID or by PID fd,
as well as namespaces bind-mounted or otherwise appearing somewhere in a
filesystem.

A porter service always answers from its own vantage point: target PIDs
resolve in the service's PID namespace, paths resolve in the service's mount
namespace. Running the service as a separate process attached to the right
namespaces thus fetches references a client cannot reach itself, such as the
namespaces of processes in sibling PID namespaces, or namespace bind mounts
in other mount namespaces.

By default, a [Client] talks to a service goroutine inside its own process,
serving the client's own vantage point. Use [WithCommand] to instead spawn a
helper process, usually a build of enterspace/porter/service/cmd.

All fetched references are plain open file descriptors, ready to be handed to
[enterspace.Join] and friends. The receiver owns them and must close them
when not needing them anymore.

# Important

Client cannot(!) be used concurrently.
*/
package porter

import "github.com/thediveo/enterspace"

var _ = enterspace.Join // make enterspace.xxx true hyperlinks
