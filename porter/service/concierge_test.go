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

package service

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thediveo/enterspace/internal/nstest"
	"github.com/thediveo/enterspace/porter/api"
	"golang.org/x/sys/unix"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/thediveo/fdooze"
	. "github.com/thediveo/success"
)

// neverPID is beyond the kernel's PID_MAX_LIMIT of 2^22 and thus can never
// name an existing process.
const neverPID = 5_000_000

var _ = Describe("concierge", func() {

	var concierge *Concierge

	BeforeEach(func() {
		goodfds := Filedescriptors()
		DeferCleanup(func() {
			Expect(Filedescriptors()).NotTo(HaveLeakedFds(goodfds))
		})

		concierge = &Concierge{
			Log: slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		}
	})

	When("fetching namespace references", func() {

		It("refuses selections outside its remit", func() {
			Expect(concierge.Refs(&api.RefsRequest{
				PID:    os.Getpid(),
				Spaces: unix.CLONE_NEWNET | unix.CLONE_VM,
			})).To(api.HaveFailed())
		})

		It("refuses an empty selection", func() {
			Expect(concierge.Refs(&api.RefsRequest{
				PID: os.Getpid(),
			})).To(api.HaveFailed())
		})

		It("refuses a request without a target process", func() {
			Expect(concierge.Refs(&api.RefsRequest{
				Spaces: unix.CLONE_NEWNET,
			})).To(api.HaveFailed())
		})

		It("refuses an ambiguous target", func() {
			pidfd := Successful(unix.PidfdOpen(os.Getpid(), 0))
			// ...the concierge closes the PID fd, the leak check would
			// notice otherwise.
			Expect(concierge.Refs(&api.RefsRequest{
				PID:    os.Getpid(),
				PidFD:  pidfd,
				Spaces: unix.CLONE_NEWNET,
			})).To(api.HaveFailed())
		})

		It("refuses a target fd that isn't a PID fd", func() {
			dirfd := Successful(unix.Open(".", unix.O_RDONLY, 0))
			resp := concierge.Refs(&api.RefsRequest{
				PidFD:  dirfd,
				Spaces: unix.CLONE_NEWNET,
			})
			Expect(resp).To(api.HaveFailed())
			Expect(resp.(*api.ErrorResponse).Reason).To(ContainSubstring("not a PID fd"))
		})

		It("refuses a target process that doesn't exist", func() {
			resp := concierge.Refs(&api.RefsRequest{
				PID:    neverPID,
				Spaces: unix.CLONE_NEWNET,
			})
			Expect(resp).To(api.HaveFailed())
			Expect(resp.(*api.ErrorResponse).Reason).To(
				ContainSubstring("failed to reference net namespace"))
		})

		It("fetches the selected namespaces of a target process", func() {
			resp := concierge.Refs(&api.RefsRequest{
				PID:    os.Getpid(),
				Spaces: unix.CLONE_NEWNET | unix.CLONE_NEWUTS,
			})
			Expect(resp).NotTo(api.HaveFailed())
			refs := resp.(*api.RefsResponse)
			defer func() {
				for _, fd := range refs.EncodeFds() {
					_ = unix.Close(fd)
				}
			}()
			Expect(nstest.TypeOf(refs.Net)).To(Equal(unix.CLONE_NEWNET))
			Expect(nstest.TypeOf(refs.UTS)).To(Equal(unix.CLONE_NEWUTS))
			Expect(refs.Cgroup).To(BeZero())
			Expect(refs.IPC).To(BeZero())
			Expect(refs.Mnt).To(BeZero())
			Expect(refs.PID).To(BeZero())
			Expect(refs.Time).To(BeZero())
			Expect(refs.User).To(BeZero())
		})

		It("fetches every type of namespace", func() {
			nstest.SkipUnlessKernelAtLeast(5, 6)
			resp := concierge.Refs(&api.RefsRequest{
				PID:    os.Getpid(),
				Spaces: fetchableSpaces,
			})
			Expect(resp).NotTo(api.HaveFailed())
			fds := resp.(*api.RefsResponse).EncodeFds()
			defer func() {
				for _, fd := range fds {
					_ = unix.Close(fd)
				}
			}()
			Expect(fds).To(HaveLen(8))
		})

		It("resolves a PID fd in its own PID namespace", func() {
			pidfd := Successful(unix.PidfdOpen(os.Getpid(), 0))
			resp := concierge.Refs(&api.RefsRequest{
				PidFD:  pidfd,
				Spaces: unix.CLONE_NEWIPC,
			})
			Expect(resp).NotTo(api.HaveFailed())
			refs := resp.(*api.RefsResponse)
			defer func() { _ = unix.Close(refs.IPC) }()
			Expect(nstest.TypeOf(refs.IPC)).To(Equal(unix.CLONE_NEWIPC))
		})

		It("honors the process filesystem root", func() {
			procroot := GinkgoT().TempDir()
			Expect(os.MkdirAll(filepath.Join(procroot, "1234", "ns"), 0o755)).To(Succeed())
			Expect(os.Symlink("/proc/self/ns/net",
				filepath.Join(procroot, "1234", "ns", "net"))).To(Succeed())

			concierge := &Concierge{
				ProcRoot: procroot,
				Log:      slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			}
			resp := concierge.Refs(&api.RefsRequest{
				PID:    1234,
				Spaces: unix.CLONE_NEWNET,
			})
			Expect(resp).NotTo(api.HaveFailed())
			refs := resp.(*api.RefsResponse)
			defer func() { _ = unix.Close(refs.Net) }()
			Expect(nstest.TypeOf(refs.Net)).To(Equal(unix.CLONE_NEWNET))
		})

	})

	When("referencing namespaces by path", func() {

		It("refuses an empty path", func() {
			Expect(concierge.Path(&api.PathRequest{})).To(api.HaveFailed())
		})

		It("refuses a path outside any namespace filesystem", func() {
			f := Successful(os.CreateTemp("", "not-a-namespace-*.dat"))
			defer func() {
				_ = f.Close()
				_ = os.Remove(f.Name())
			}()
			Expect(concierge.Path(&api.PathRequest{
				Path: f.Name(),
			})).To(api.HaveFailed())
		})

		It("references a namespace by its path", func() {
			resp := concierge.Path(&api.PathRequest{
				Path: "/proc/self/ns/net",
			})
			Expect(resp).NotTo(api.HaveFailed())
			ref := resp.(*api.PathResponse)
			defer func() { _ = unix.Close(ref.Ref) }()
			Expect(nstest.TypeOf(ref.Ref)).To(Equal(unix.CLONE_NEWNET))
		})

	})

})
