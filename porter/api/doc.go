/*
Package api defines the protocol requests and responses spoken between porter
clients and porter services. Messages travel in [gob] encoding. Namespace and
process file descriptors never travel inside messages, as fd numbers are
meaningless outside their owning process; instead, the fds travel as
out-of-band (SCM_RIGHTS) auxiliary data alongside their messages, with
[FdsEncoder] and [FdsDecoder] moving them out of and back into message fields
on either end.

Importing the api package registers all message types with gob, so that
messages can be sent and received through polymorphous [Request] and [Response]
interface values.
*/
package api
