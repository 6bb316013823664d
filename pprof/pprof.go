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

package pprof

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime"
	rtpprof "runtime/pprof"
	"sync"

	"code.denebmarkets.io/deneb/config/encoding"
	"code.denebmarkets.io/deneb/logging"
)

const (
	pprofDir       = "pprof"
	memprofileName = "mem.pprof"
	cpuprofileName = "cpu.pprof"

	// namedLogger is the identifier for package and should ideally match the package name
	// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
	namedLogger = "pprof"
)

// Config represents the configuration of the pprof handler.
type Config struct {
	Level                encoding.LogLevel `long:"log-level"`
	Enabled              encoding.Bool     `long:"enabled" description:"start the pprof web server and write profiles on shutdown"`
	Port                 uint16            `long:"port" description:"listen port of the pprof web server"`
	ProfilesDir          string            `long:"profiles-dir" description:"directory the cpu and memory profiles are written to"`
	BlockProfileRate     int               `long:"block-profile-rate" description:"fraction of goroutine blocking events reported, 0 disables"`
	MutexProfileFraction int               `long:"mutex-profile-fraction" description:"fraction of mutex contention events reported, 0 disables"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:                encoding.LogLevel{Level: logging.InfoLevel},
		Enabled:              false,
		Port:                 6060,
		ProfilesDir:          "/tmp",
		BlockProfileRate:     0,
		MutexProfileFraction: 0,
	}
}

// Handler exposes the pprof web server while running and dumps the cpu
// and memory profiles on Stop.
type Handler struct {
	log *logging.Logger

	Config
	cfgMu sync.Mutex

	memprofilePath string
	cpuprofilePath string
}

// New starts the pprof web server and the cpu profiler.
func New(log *logging.Logger, config Config) (*Handler, error) {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	p := &Handler{
		log:            log,
		Config:         config,
		memprofilePath: filepath.Join(config.ProfilesDir, pprofDir, memprofileName),
		cpuprofilePath: filepath.Join(config.ProfilesDir, pprofDir, cpuprofileName),
	}

	runtime.SetBlockProfileRate(config.BlockProfileRate)
	runtime.SetMutexProfileFraction(config.MutexProfileFraction)

	go func() {
		addr := fmt.Sprintf("localhost:%d", config.Port)
		p.log.Error("pprof web server closed",
			logging.Error(http.ListenAndServe(addr, nil)),
		)
	}()

	if err := os.MkdirAll(filepath.Join(config.ProfilesDir, pprofDir), 0o755); err != nil {
		p.log.Error("unable to create profiles directory",
			logging.String("path", p.cpuprofilePath),
			logging.Error(err),
		)
		return nil, err
	}
	f, err := os.Create(p.cpuprofilePath)
	if err != nil {
		p.log.Error("unable to create cpu profile file",
			logging.String("path", p.cpuprofilePath),
			logging.Error(err),
		)
		return nil, err
	}
	if err := rtpprof.StartCPUProfile(f); err != nil {
		p.log.Error("unable to start cpu profiling", logging.Error(err))
		return nil, err
	}
	return p, nil
}

// ReloadConf updates the internal configuration of the pprof handler.
func (p *Handler) ReloadConf(cfg Config) {
	p.log.Info("reloading configuration")
	if p.log.GetLevel() != cfg.Level.Get() {
		p.log.Info("updating log level",
			logging.String("old", p.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		p.log.SetLevel(cfg.Level.Get())
	}

	p.cfgMu.Lock()
	p.Config = cfg
	p.cfgMu.Unlock()

	runtime.SetBlockProfileRate(cfg.BlockProfileRate)
	runtime.SetMutexProfileFraction(cfg.MutexProfileFraction)
}

// Stop flushes the cpu profile and writes the memory profile, use with
// defer at startup.
func (p *Handler) Stop() error {
	defer rtpprof.StopCPUProfile()

	p.log.Info("saving pprof memory profile", logging.String("path", p.memprofilePath))
	p.log.Info("saving pprof cpu profile", logging.String("path", p.cpuprofilePath))

	f, err := os.Create(p.memprofilePath)
	if err != nil {
		p.log.Error("unable to create memory profile file",
			logging.String("path", p.memprofilePath),
			logging.Error(err),
		)
		return err
	}
	defer f.Close()

	runtime.GC()
	if err := rtpprof.WriteHeapProfile(f); err != nil {
		p.log.Error("unable to write memory profile", logging.Error(err))
		return err
	}
	return nil
}
