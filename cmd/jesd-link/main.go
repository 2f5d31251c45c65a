// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command jesd-link starts a TDAQ server emulating a looped-back JESD204B
// link: every lane transmitter is connected to its receiver, user frames
// are checked after the round trip and the transmitted lane symbols are
// published on the /lanes output.
//
// The link description is read from the TOML file sent with the /config
// command, or from the -cfg flag.
package main // import "github.com/go-lpc/jesd/cmd/jesd-link"

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/flags"
	"github.com/go-lpc/jesd/internal/linkcfg"
)

func main() {
	var (
		fname = flag.String("cfg", "", "path to a TOML link description")
		seed  = flag.Int64("seed", 1234, "seed of the pseudo-random user data")
		freq  = flag.Duration("freq", 100*time.Millisecond, "frame slot period")
	)

	cmd := flags.New()

	dev := device{
		name:  cmd.Name,
		fname: *fname,
		seed:  *seed,
		freq:  *freq,
	}

	srv := tdaq.New(cmd, os.Stdout)
	srv.CmdHandle("/config", dev.OnConfig)
	srv.CmdHandle("/init", dev.OnInit)
	srv.CmdHandle("/reset", dev.OnReset)
	srv.CmdHandle("/start", dev.OnStart)
	srv.CmdHandle("/stop", dev.OnStop)
	srv.CmdHandle("/quit", dev.OnQuit)

	srv.OutputHandle("/lanes", dev.lanes)

	srv.RunHandle(dev.run)

	err := srv.Run(context.Background())
	if err != nil {
		log.Panicf("error: %+v", err)
	}
}

type device struct {
	name  string
	fname string // default link description
	seed  int64
	freq  time.Duration

	cfg  linkcfg.Config
	loop *loopback
	data chan []byte
}

func (dev *device) OnConfig(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /config command...")

	var (
		fname = dev.fname
		cfg   = linkcfg.Default()
		err   error
	)
	if len(req.Body) > 0 {
		dec := tdaq.NewDecoder(bytes.NewReader(req.Body))
		fname = dec.ReadStr()
		if err := dec.Err(); err != nil {
			ctx.Msg.Errorf("could not decode /config request: %+v", err)
			return err
		}
	}

	if fname != "" {
		cfg, err = linkcfg.Load(fname)
		if err != nil {
			ctx.Msg.Errorf("could not load link description %q: %+v", fname, err)
			return err
		}
	}

	_, err = cfg.Settings()
	if err != nil {
		ctx.Msg.Errorf("invalid link description: %+v", err)
		return err
	}

	dev.cfg = cfg
	ctx.Msg.Infof("link %q configured", cfg.Link.Name)
	return nil
}

func (dev *device) OnInit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /init command...")
	return dev.init(ctx)
}

func (dev *device) OnReset(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /reset command...")
	return dev.init(ctx)
}

func (dev *device) init(ctx tdaq.Context) error {
	if dev.cfg.Link.L == 0 {
		dev.cfg = linkcfg.Default()
	}

	set, err := dev.cfg.Settings()
	if err != nil {
		ctx.Msg.Errorf("invalid link description: %+v", err)
		return err
	}

	dev.loop, err = newLoopback(set, dev.seed, ctx.Msg)
	if err != nil {
		ctx.Msg.Errorf("could not create link loopback: %+v", err)
		return err
	}
	dev.data = make(chan []byte, 1024)
	return nil
}

func (dev *device) OnStart(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /start command...")
	return nil
}

func (dev *device) OnStop(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	var n, slots int64
	if dev.loop != nil {
		n, slots = dev.loop.frames, dev.loop.slots
	}
	ctx.Msg.Debugf("received /stop command... -> frames=%d (slots=%d)", n, slots)
	return nil
}

func (dev *device) OnQuit(ctx tdaq.Context, resp *tdaq.Frame, req tdaq.Frame) error {
	ctx.Msg.Debugf("received /quit command...")
	return nil
}

func (dev *device) lanes(ctx tdaq.Context, dst *tdaq.Frame) error {
	select {
	case <-ctx.Ctx.Done():
		dst.Body = nil
		return nil
	case data := <-dev.data:
		dst.Body = data
	}
	return nil
}

func (dev *device) run(ctx tdaq.Context) error {
	if dev.loop == nil {
		return fmt.Errorf("jesd-link: run before /init")
	}

	tick := time.NewTicker(dev.freq)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Ctx.Done():
			return nil
		case <-tick.C:
			frames, err := dev.loop.step()
			if err != nil {
				ctx.Msg.Errorf("link error: %+v", err)
				return err
			}
			raw, err := encodeLanes(frames)
			if err != nil {
				ctx.Msg.Errorf("could not encode lane symbols: %+v", err)
				return err
			}
			select {
			case dev.data <- raw:
			default:
			}
		}
	}
}
