/*
enterspace runs a program attached to the Linux kernel namespaces of a
target process or of namespace pseudo files, such as bind-mounted
namespaces.

	enterspace [flags] [--] program [args ...]

Each namespace kind has its own flag, where the optional value is the
path of a namespace pseudo file; without a value, the namespace of the
target process passed via --target is used instead. Values must be
attached to their flag, as in “--net=/run/netns/frob”. With --all,
enterspace joins every namespace of the target process it can reference,
skipping those it is already attached to and tolerating refusals.

The program always runs as a child process of enterspace: the kernel
moves only children into a joined PID namespace, never the joining
process itself. enterspace passes the program's exit code through.

The kernel refuses to attach multi-threaded processes to user and time
namespaces, and Go programs are always multi-threaded. The --user and
--time flags are still accepted and the kernel's verdict is passed on,
so these kinds are useful mostly with --tolerant.
*/
package main
