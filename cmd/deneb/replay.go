// Copyright (C) 2023 Deneb Markets Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"code.denebmarkets.io/deneb/cmd/deneb/replay"
	"code.denebmarkets.io/deneb/config"
	vgfs "code.denebmarkets.io/deneb/libs/fs"
	vgterm "code.denebmarkets.io/deneb/libs/term"
	"code.denebmarkets.io/deneb/logging"
	"code.denebmarkets.io/deneb/metrics"
	"code.denebmarkets.io/deneb/pprof"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

type ReplayCmd struct {
	config.RootPathFlag

	MetricsAddr string `long:"metrics-addr" description:"Serve prometheus metrics on this address while replaying"`
	NoColor     bool   `long:"no-color" description:"Disable coloured output"`
}

var replayCmd ReplayCmd

func (cmd *ReplayCmd) Execute(args []string) error {
	if len(args) == 0 {
		return errors.New("missing scenario file")
	}

	// bootstrap logger, replaced once the configuration is loaded
	bootLog := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer bootLog.AtExit()

	exists, err := vgfs.FileExists(config.FilePath(cmd.RootPath))
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("engine home has not been initialised, please run `%s init`", os.Args[0])
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := config.NewFromFile(ctx, bootLog, cmd.RootPath)
	if err != nil {
		return err
	}
	cfg := watcher.Get()

	log := logging.NewLoggerFromConfig(cfg.Logging)
	defer log.AtExit()

	if cfg.Pprof.Enabled {
		handler, err := pprof.New(log, cfg.Pprof)
		if err != nil {
			return err
		}
		defer handler.Stop()
	}

	if len(cmd.MetricsAddr) > 0 {
		port, err := portOf(cmd.MetricsAddr)
		if err != nil {
			return err
		}
		cfg.Metrics.Enabled = true
		cfg.Metrics.Port = port
	}
	metrics.Start(cfg.Metrics)

	if cmd.NoColor || vgterm.HasNoTTY() {
		color.NoColor = true
	}

	sc, err := replay.LoadScenario(args[0])
	if err != nil {
		return err
	}

	runner := replay.NewRunner(log, cfg, replay.NewReporter(os.Stdout))
	runner.Watch(watcher)
	return runner.Run(ctx, sc)
}

// portOf extracts the port of a listen address, the metrics server
// binds every interface regardless of the host part.
func portOf(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, errors.Wrap(err, "invalid metrics address")
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, errors.Wrap(err, "invalid metrics address")
	}
	return int(port), nil
}

func Replay(ctx context.Context, parser *flags.Parser) error {
	replayCmd = ReplayCmd{
		RootPathFlag: config.NewRootPathFlag(),
	}

	_, err := parser.AddCommand("replay", "Replays a trade scenario",
		"Run a scripted scenario of deposits, orders and trades through a market and print the settlement records", &replayCmd)
	return err
}
