// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package linkcfg loads JESD204B link descriptions from TOML files.
//
// Example:
//
//	[link]
//	name = "adc-4l-16b"
//	did  = 90
//	bid  = 5
//	l    = 4
//	m    = 4
//	n    = 16
//	np   = 16
//	f    = 2
//	s    = 1
//	k    = 16
//	scr  = true
//
//	[clock]
//	refclk   = 125_000_000
//	linerate = 5_000_000_000
//
// Keys not present in the file keep their default value.
package linkcfg // import "github.com/go-lpc/jesd/internal/linkcfg"

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-lpc/jesd/conddb"
	"github.com/go-lpc/jesd/link"
)

// Config is the description of a link and of its clock plan.
type Config struct {
	Link  conddb.Link      `toml:"link"`
	Clock conddb.ClockPlan `toml:"clock"`
}

// Default returns the default link description: 4 lanes, 4 converters
// with 16-bit samples, running at 5 Gbps from a 125 MHz reference clock.
func Default() Config {
	return Config{
		Link: conddb.Link{
			Name:      "default",
			L:         4,
			M:         4,
			N:         16,
			NP:        16,
			SubclassV: 1,
			F:         2,
			S:         1,
			K:         16,
		},
		Clock: conddb.ClockPlan{
			Link:     "default",
			RefClk:   125_000_000,
			LineRate: 5_000_000_000,
		},
	}
}

// Load loads the link description stored in the TOML file fname.
func Load(fname string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(fname, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("linkcfg: could not decode %q: %w", fname, err)
	}
	return finalize(cfg, meta)
}

// Decode decodes a TOML link description from r.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return cfg, fmt.Errorf("linkcfg: could not decode link description: %w", err)
	}
	return finalize(cfg, meta)
}

func finalize(cfg Config, meta toml.MetaData) (Config, error) {
	if keys := meta.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		sort.Strings(names)
		return cfg, fmt.Errorf("linkcfg: unknown keys: %s", strings.Join(names, ", "))
	}
	cfg.Clock.Link = cfg.Link.Name
	return cfg, nil
}

// Settings validates the link description.
func (cfg Config) Settings() (link.Settings, error) {
	set, err := cfg.Link.Settings()
	if err != nil {
		return set, fmt.Errorf("linkcfg: invalid link %q: %w", cfg.Link.Name, err)
	}
	return set, nil
}
