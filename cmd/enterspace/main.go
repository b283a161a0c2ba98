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

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enterspace"
	"github.com/thediveo/enterspace/mntns"
	"github.com/thediveo/enterspace/nsref"
	"golang.org/x/sys/unix"
)

// targetsNamespace is the value of a kind flag given without a path,
// standing in for the target process's namespace of that kind.
const targetsNamespace = "-"

// kinds maps the namespace kind flags onto the kernel's type constants.
// The flag names and shorthands follow nsenter(1), so “mount” instead of
// the kernel's procfs link name “mnt”.
var kinds = []struct {
	flag      string
	shorthand string
	typ       int
}{
	{"cgroup", "C", unix.CLONE_NEWCGROUP},
	{"ipc", "i", unix.CLONE_NEWIPC},
	{"mount", "m", unix.CLONE_NEWNS},
	{"net", "n", unix.CLONE_NEWNET},
	{"pid", "p", unix.CLONE_NEWPID},
	{"time", "T", unix.CLONE_NEWTIME},
	{"user", "U", unix.CLONE_NEWUSER},
	{"uts", "u", unix.CLONE_NEWUTS},
}

// kindType returns the type constant for a kind flag name, otherwise 0.
func kindType(flagname string) int {
	for _, kind := range kinds {
		if kind.flag == flagname {
			return kind.typ
		}
	}
	return 0
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enterspace [flags] [--] program [args ...]",
		Short: "run a program attached to the namespaces of other processes",
		Long: `enterspace runs a program attached to the Linux kernel namespaces of a
target process or of namespace pseudo files, such as bind-mounted
namespaces. The program runs as a child process of enterspace and its
exit code is passed through.

Kind flag values must be attached with “=”, as in “--net=/run/netns/frob”;
a kind flag without a value selects the namespace of the --target
process. The kernel refuses to attach multi-threaded processes such as
enterspace to user and time namespaces; their kind flags are still
accepted and the kernel's verdict passed on.`,
		Example: `  # run a shell attached to the network and UTS namespaces of process 4711
  enterspace -t 4711 --net --uts /bin/sh
  # show the network interfaces inside a bind-mounted network namespace
  enterspace --net=/run/netns/frob ip link show`,
		Args:          cobra.MinimumNArgs(1),
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.IntP("target", "t", 0,
		"PID of the target process to take namespaces from")
	for _, kind := range kinds {
		kindFlag(flags, kind.flag, kind.shorthand)
	}
	flags.BoolP("all", "a", false,
		"join every namespace of the target process, tolerating refusals")
	flags.StringSlice("tolerant", nil,
		"namespace `kind[,kind...]` whose join refusals are tolerated instead of fatal")
	flags.String("log-level", "warn",
		"diagnostics level, one of debug, info, warn, or error")
	return cmd
}

// kindFlag registers the flag for joining one kind of namespace, with
// the path value optional.
func kindFlag(flags *pflag.FlagSet, name, shorthand string) {
	flags.StringP(name, shorthand, "",
		"join the "+name+" namespace at `PATH`, or the target's when no path is given")
	flags.Lookup(name).NoOptDefVal = targetsNamespace
}

func run(cmd *cobra.Command, args []string) error {
	if err := setupLogging(cmd); err != nil {
		return err
	}
	set, closeRefs, err := assemble(cmd)
	if err != nil {
		return err
	}
	defer closeRefs()

	// The workload below must be forked from the very thread that
	// switched its namespace membership, so this go routine locks to its
	// thread and never unlocks, leaving the tainted thread to the Go
	// runtime for disposal.
	runtime.LockOSThread()
	for _, member := range set {
		if member.Type != unix.CLONE_NEWNS {
			continue
		}
		if err := mntns.DetachFS(); err != nil {
			return err
		}
		break
	}
	if err := set.Join(); err != nil {
		return err
	}

	slog.Debug("starting workload", slog.String("program", args[0]))
	workload := exec.Command(args[0], args[1:]...)
	workload.Stdin = os.Stdin
	workload.Stdout = os.Stdout
	workload.Stderr = os.Stderr
	return workload.Run()
}

// assemble turns the command line into the set of namespaces to join,
// with their references already opened. The caller must call the
// returned function to release the references when done joining.
func assemble(cmd *cobra.Command) (enterspace.Set, func(), error) {
	flags := cmd.Flags()
	target, _ := flags.GetInt("target")
	all, _ := flags.GetBool("all")

	type plan struct {
		source     string
		tolerant   bool
		bestEffort bool
	}
	plans := map[int]*plan{}
	if all {
		if target <= 0 {
			return nil, nil, errors.New("--all needs --target")
		}
		for _, kind := range kinds {
			plans[kind.typ] = &plan{
				source:     targetsNamespace,
				tolerant:   true,
				bestEffort: true,
			}
		}
	}
	for _, kind := range kinds {
		if !flags.Changed(kind.flag) {
			continue
		}
		source, _ := flags.GetString(kind.flag)
		plans[kind.typ] = &plan{source: source}
	}
	tolerated, _ := flags.GetStringSlice("tolerant")
	for _, name := range tolerated {
		typ := kindType(name)
		if typ == 0 {
			return nil, nil, fmt.Errorf("unknown namespace kind %q", name)
		}
		if plan, ok := plans[typ]; ok {
			plan.tolerant = true
		}
	}

	var refs []*nsref.Ref
	closeRefs := func() {
		for _, ref := range refs {
			_ = ref.Close()
		}
	}
	var set enterspace.Set
	for _, kind := range kinds {
		plan, ok := plans[kind.typ]
		if !ok {
			continue
		}
		ref, err := resolve(kind.flag, kind.typ, plan.source, target)
		if err != nil {
			if plan.bestEffort {
				slog.Warn("cannot reference namespace of target",
					slog.String("type", kind.flag),
					slog.String("err", err.Error()))
				continue
			}
			closeRefs()
			return nil, nil, err
		}
		if plan.bestEffort && attachedTo(ref, kind.typ) {
			slog.Debug("already attached", slog.String("type", kind.flag))
			_ = ref.Close()
			continue
		}
		refs = append(refs, ref)
		set = append(set, enterspace.Member{
			FD:       ref.FD(),
			Type:     kind.typ,
			Tolerant: plan.tolerant,
		})
	}
	return set, closeRefs, nil
}

// resolve opens the reference for joining one kind of namespace, either
// the target process's namespace of this kind, or the namespace pseudo
// file at the explicitly given source path. Explicit paths must
// reference the kind of namespace their flag stands for.
func resolve(flagname string, typ int, source string, target int) (*nsref.Ref, error) {
	if source == targetsNamespace {
		if target <= 0 {
			return nil, fmt.Errorf("--%s without a path needs --target", flagname)
		}
		return nsref.OpenProcess(target, typ)
	}
	ref, err := nsref.Open(source)
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
			source, enterspace.Name(reftyp), enterspace.Name(typ))
	}
	return ref, nil
}

// attachedTo reports whether the calling thread is already attached to
// the referenced namespace; when in doubt, it isn't.
func attachedTo(ref *nsref.Ref, typ int) bool {
	ino, err := ref.Ino()
	if err != nil {
		return false
	}
	curino, err := enterspace.CurrentIno(typ)
	if err != nil {
		return false
	}
	return ino == curino
}

func setupLogging(cmd *cobra.Command) error {
	text, _ := cmd.Flags().GetString("log-level")
	var level slog.Level
	if err := level.UnmarshalText([]byte(text)); err != nil {
		return fmt.Errorf("invalid log level %q", text)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})))
	return nil
}

func main() {
	if err := newCommand().Execute(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.Exited() {
			os.Exit(exitErr.ExitCode())
		}
		slog.Error("enterspace failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
}
