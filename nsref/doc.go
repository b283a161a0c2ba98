/*
Package nsref discovers Linux kernel namespace references and owns
their lifecycle: it opens them, hands out the file descriptors for
borrowing, and closes them again. Referencing is strictly join-only;
creating namespaces is the launcher's job.

References come from arbitrary VFS paths (including bind-mounted
namespaces), from the process file system, or from OCI runtime-spec
namespace configuration entries. All constructors verify that what they
opened actually sits on a namespace file system, so callers cannot
accidentally pass ordinary files into [setns(2)].

[setns(2)]: https://man7.org/linux/man-pages/man2/setns.2.html
*/
package nsref
