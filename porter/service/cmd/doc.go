/*
Package main provides the command for running a porter service as a separate
process. This command is not intended to be run directly from the CLI, but
instead only from [porter.Client].

The command expects the file descriptor number 3 to be open and to be a
connected unix domain socket. This socket is then used to receive service
requests and to send back responses.

The command terminates when the connected peer socket closes (disconnects).

Setting the “ENTERSPACE_DEBUG” environment variable to any non-empty value
lowers the log level from info to debug.
*/
package main
