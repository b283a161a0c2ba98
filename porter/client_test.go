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

package porter_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/onsi/gomega/gexec"
	"github.com/thediveo/enterspace"
	"github.com/thediveo/enterspace/internal/nstest"
	"github.com/thediveo/enterspace/porter"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

// newClient returns a client connected to an in-process porter service that
// logs to the GinkgoWriter.
func newClient(ctx context.Context, opts ...porter.Option) *porter.Client {
	GinkgoHelper()
	opts = append(opts, porter.WithLogger(
		slog.New(slog.NewTextHandler(GinkgoWriter, nil))))
	return Successful(porter.New(ctx, opts...))
}

var _ = Describe("porter client", func() {

	BeforeEach(func() {
		goodfds := Filedescriptors()
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).Within(2 * time.Second).ProbeEvery(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})
	})

	When("working with an in-process porter service", func() {

		It("fetches namespace references by PID", func(ctx context.Context) {
			cl := newClient(ctx)
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			refs := Successful(cl.Refs(os.Getpid(),
				unix.CLONE_NEWNET|unix.CLONE_NEWUTS))
			defer func() {
				for _, fd := range refs.EncodeFds() {
					_ = unix.Close(fd)
				}
			}()
			Expect(refs.Net).To(nstest.BeANamespace(unix.CLONE_NEWNET))
			Expect(refs.UTS).To(nstest.BeANamespace(unix.CLONE_NEWUTS))
			Expect(nstest.Ino(refs.Net, unix.CLONE_NEWNET)).To(
				Equal(Successful(enterspace.CurrentIno(unix.CLONE_NEWNET))))
		})

		It("fetches namespace references by PID fd", func(ctx context.Context) {
			cl := newClient(ctx)
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			// ...and the PID fd stays ours to close.
			pidfd := Successful(unix.PidfdOpen(os.Getpid(), 0))
			defer func() { _ = unix.Close(pidfd) }()

			refs := Successful(cl.RefsOfPidfd(pidfd, unix.CLONE_NEWIPC))
			defer func() { _ = unix.Close(refs.IPC) }()
			Expect(refs.IPC).To(nstest.BeANamespace(unix.CLONE_NEWIPC))
		})

		It("fetches a namespace reference by path", func(ctx context.Context) {
			cl := newClient(ctx)
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			ref := Successful(cl.Path("/proc/self/ns/net"))
			defer func() { _ = unix.Close(ref) }()
			Expect(ref).To(nstest.BeANamespace(unix.CLONE_NEWNET))
		})

		It("reports failed requests and stays usable", func(ctx context.Context) {
			cl := newClient(ctx)
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			Expect(cl.Refs(0, unix.CLONE_NEWNET)).Error().To(
				MatchError(ContainSubstring("no target process")))

			refs := Successful(cl.Refs(os.Getpid(), unix.CLONE_NEWNET))
			defer func() { _ = unix.Close(refs.Net) }()
			Expect(nstest.TypeOf(refs.Net)).To(Equal(unix.CLONE_NEWNET))
		})

		It("honors the process filesystem root", func(ctx context.Context) {
			cl := newClient(ctx, porter.WithProcRoot(GinkgoT().TempDir()))
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			Expect(cl.Refs(os.Getpid(), unix.CLONE_NEWNET)).Error().To(
				MatchError(ContainSubstring("failed to reference net namespace")))
		})

		It("refuses to work after close", func(ctx context.Context) {
			cl := newClient(ctx)
			Expect(cl.Close()).To(Succeed())
			Expect(cl.Refs(os.Getpid(), unix.CLONE_NEWNET)).Error().To(HaveOccurred())
		})

	})

	When("working with a porter service process", Ordered, func() {

		var servicebin string

		BeforeAll(func() {
			By("building the porter service binary")
			servicebin = Successful(gexec.BuildWithEnvironment(
				"github.com/thediveo/enterspace/porter/service/cmd",
				[]string{"CGO_ENABLED=0"},
				"-tags=usergo,netgo"))
		})

		It("fetches namespace references across the process boundary", func(ctx context.Context) {
			cl := Successful(porter.New(ctx,
				porter.WithCommand(servicebin),
				porter.WithStdout(GinkgoWriter),
				porter.WithStderr(GinkgoWriter)))
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			refs := Successful(cl.Refs(os.Getpid(), unix.CLONE_NEWUTS))
			defer func() { _ = unix.Close(refs.UTS) }()
			Expect(nstest.Ino(refs.UTS, unix.CLONE_NEWUTS)).To(
				Equal(Successful(enterspace.CurrentIno(unix.CLONE_NEWUTS))))
		})

		It("resolves a PID fd sent across the process boundary", func(ctx context.Context) {
			cl := Successful(porter.New(ctx,
				porter.WithCommand(servicebin),
				porter.WithStdout(GinkgoWriter),
				porter.WithStderr(GinkgoWriter)))
			defer func() { Expect(cl.Close()).To(Succeed()) }()

			pidfd := Successful(unix.PidfdOpen(os.Getpid(), 0))
			defer func() { _ = unix.Close(pidfd) }()

			refs := Successful(cl.RefsOfPidfd(pidfd, unix.CLONE_NEWNET))
			defer func() { _ = unix.Close(refs.Net) }()
			Expect(nstest.Ino(refs.Net, unix.CLONE_NEWNET)).To(
				Equal(Successful(enterspace.CurrentIno(unix.CLONE_NEWNET))))
		})

	})

})
