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

package api

import (
	"os"

	"github.com/thediveo/enterspace/internal/nstest"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

var _ = Describe("fetching namespace references", func() {

	BeforeEach(func() {
		goodfds := Filedescriptors()
		DeferCleanup(func() {
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})
	})

	When("requesting references", func() {

		It("transfers a PID fd out-of-band", func() {
			pidfd := Successful(unix.PidfdOpen(os.Getpid(), 0))
			defer func() { _ = unix.Close(pidfd) }()

			req := &RefsRequest{PidFD: pidfd, Spaces: unix.CLONE_NEWNET}
			fds := req.EncodeFds()
			Expect(fds).To(HaveLen(1))
			Expect(req.PidFD).To(BeZero())
			req.DecodeFds(fds)
			Expect(req.PidFD).To(Equal(pidfd))
		})

		It("transfers no fd when the target is named by PID", func() {
			req := &RefsRequest{PID: os.Getpid(), Spaces: unix.CLONE_NEWNET}
			Expect(req.EncodeFds()).To(BeEmpty())
		})

		It("closes surplus fds", func() {
			fd1 := Successful(unix.Open(".", unix.O_RDONLY, 0))
			defer func() { _ = unix.Close(fd1) }()
			fd2 := Successful(unix.Open(".", unix.O_RDONLY, 0))

			var req RefsRequest
			req.DecodeFds([]int{fd1, fd2})
			Expect(req.PidFD).To(Equal(fd1))
			Expect(unix.Close(fd2)).To(MatchError(unix.EBADF))
		})

	})

	When("responding with references", func() {

		It("transfers reference fds out-of-band", func() {
			nstest.SkipUnlessKernelAtLeast(5, 6)
			resp := &RefsResponse{
				Cgroup: nstest.Current(unix.CLONE_NEWCGROUP),
				IPC:    nstest.Current(unix.CLONE_NEWIPC),
				Mnt:    nstest.Current(unix.CLONE_NEWNS),
				Net:    nstest.Current(unix.CLONE_NEWNET),
				PID:    nstest.Current(unix.CLONE_NEWPID),
				Time:   nstest.Current(unix.CLONE_NEWTIME),
				User:   nstest.Current(unix.CLONE_NEWUSER),
				UTS:    nstest.Current(unix.CLONE_NEWUTS),
			}
			fds := resp.EncodeFds()
			Expect(fds).To(HaveLen(8))
			Expect(*resp).To(BeZero())
			resp.DecodeFds(fds)
			Expect(nstest.TypeOf(resp.Cgroup)).To(Equal(unix.CLONE_NEWCGROUP))
			Expect(nstest.TypeOf(resp.IPC)).To(Equal(unix.CLONE_NEWIPC))
			Expect(nstest.TypeOf(resp.Mnt)).To(Equal(unix.CLONE_NEWNS))
			Expect(nstest.TypeOf(resp.Net)).To(Equal(unix.CLONE_NEWNET))
			Expect(nstest.TypeOf(resp.PID)).To(Equal(unix.CLONE_NEWPID))
			Expect(nstest.TypeOf(resp.Time)).To(Equal(unix.CLONE_NEWTIME))
			Expect(nstest.TypeOf(resp.User)).To(Equal(unix.CLONE_NEWUSER))
			Expect(nstest.TypeOf(resp.UTS)).To(Equal(unix.CLONE_NEWUTS))
		})

		It("drops fds that don't reference namespaces", func() {
			fd1 := Successful(unix.Open(".", unix.O_RDONLY, 0))
			defer func() { _ = unix.Close(fd1) }()

			var resp RefsResponse
			resp.DecodeFds([]int{fd1, nstest.Current(unix.CLONE_NEWNET)})
			Expect(resp.Cgroup).To(BeZero())
			Expect(resp.IPC).To(BeZero())
			Expect(resp.Mnt).To(BeZero())
			Expect(resp.Net).NotTo(BeZero())
			Expect(resp.PID).To(BeZero())
			Expect(resp.Time).To(BeZero())
			Expect(resp.User).To(BeZero())
			Expect(resp.UTS).To(BeZero())
		})

	})

})
