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
	"context"
	"log/slog"
	"os"

	"github.com/thediveo/enterspace/porter/service"
	"github.com/thediveo/enterspace/uds"

	"github.com/thediveo/enterspace/porter"
)

var _ = porter.New // ... so that [porter.Client] gets a proper hyperlink.

func main() {
	level := slog.LevelInfo
	if os.Getenv("ENTERSPACE_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	slog.Info("enterspace/porter/service/cmd started",
		slog.Int("pid", os.Getpid()))
	defer slog.Info("enterspace/porter/service/cmd terminated",
		slog.Int("pid", os.Getpid()))

	conn, err := uds.NewUnixConn(3, "porter")
	if err != nil {
		slog.Error("invalid fd 3", slog.String("err", err.Error()))
		os.Exit(1)
	}
	service.Serve(context.Background(), conn, &service.Concierge{Log: log})
}
