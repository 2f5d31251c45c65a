// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// jesd-cfg displays the configuration of a JESD204B link: its geometry,
// the configuration descriptor of each lane and the settings of the
// transceiver PLLs.
//
// Usage: jesd-cfg [OPTIONS]
//
// The link description is read from a TOML file (-cfg), from the
// configuration database (-db) or from command line flags.
//
// Example:
//
//	$> jesd-cfg -l=2 -m=2 -f=4 -s=2 -k=8 -scr -lanes
//	link:      default
//	device:    did=0 bid=0
//	physical:  L=2 M=2 N=16 NP=16 subclass=1 jesdv=1
//	transport: F=4 S=2 K=8 CS=0 HD=false SCR=true
//	geometry:  nibbles/word=4 octets/frame=4 octets/lane=4
//	[...]
package main // import "github.com/go-lpc/jesd/cmd/jesd-cfg"

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/go-lpc/jesd"
	"github.com/go-lpc/jesd/conddb"
	"github.com/go-lpc/jesd/internal/linkcfg"
)

func main() {
	xmain(os.Stdout, os.Args[1:])
}

func xmain(w io.Writer, args []string) {
	log.SetPrefix("jesd-cfg: ")
	log.SetFlags(0)

	def := linkcfg.Default()

	var (
		fset = flag.NewFlagSet("jesd-cfg", flag.ExitOnError)

		fname  = fset.String("cfg", "", "path to a TOML link description")
		dbname = fset.String("db", "", "name of the configuration database to query")
		lname  = fset.String("link", "", "name of the link to retrieve from the database (default: last link)")
		lanes  = fset.Bool("lanes", false, "display the configuration descriptor of every lane")
		vers   = fset.Bool("version", false, "display version and exit")

		did = fset.Int("did", def.Link.DID, "device id")
		bid = fset.Int("bid", def.Link.BID, "bank id")
		l   = fset.Int("l", def.Link.L, "number of lanes")
		m   = fset.Int("m", def.Link.M, "number of converters")
		n   = fset.Int("n", def.Link.N, "converter resolution (bits)")
		np  = fset.Int("np", def.Link.NP, "bits per sample")
		f   = fset.Int("f", def.Link.F, "octets per frame and lane")
		s   = fset.Int("s", def.Link.S, "samples per converter and frame")
		k   = fset.Int("k", def.Link.K, "frames per multiframe")
		cs  = fset.Int("cs", def.Link.CS, "control bits per sample")
		hd  = fset.Bool("hd", def.Link.HD, "enable high density format")
		scr = fset.Bool("scr", def.Link.SCR, "enable scrambling")

		refclk   = fset.Int64("refclk", def.Clock.RefClk, "reference clock frequency (Hz)")
		linerate = fset.Int64("linerate", def.Clock.LineRate, "line rate (bit/s)")
	)

	fset.Usage = func() {
		fmt.Printf(`jesd-cfg displays the configuration of a JESD204B link.

Usage: jesd-cfg [OPTIONS]

ex:
 $> jesd-cfg -cfg ./link.toml -lanes
 $> jesd-cfg -db jesd -link adc-4l-16b
 $> jesd-cfg -l=2 -m=2 -f=4 -s=2 -k=8 -scr

options:
`)
		fset.PrintDefaults()
	}

	err := fset.Parse(args)
	if err != nil {
		log.Fatalf("could not parse input arguments: %+v", err)
	}

	if *vers {
		version, sum := jesd.Version()
		fmt.Fprintf(w, "jesd-cfg version=%q sum=%q\n", version, sum)
		return
	}

	var cfg linkcfg.Config
	switch {
	case *fname != "":
		cfg, err = linkcfg.Load(*fname)
		if err != nil {
			log.Fatalf("could not load link description: %+v", err)
		}

	case *dbname != "":
		cfg, err = fromDB(*dbname, *lname)
		if err != nil {
			log.Fatalf("could not retrieve link description: %+v", err)
		}

	default:
		cfg = def
		cfg.Link.DID = *did
		cfg.Link.BID = *bid
		cfg.Link.L = *l
		cfg.Link.M = *m
		cfg.Link.N = *n
		cfg.Link.NP = *np
		cfg.Link.F = *f
		cfg.Link.S = *s
		cfg.Link.K = *k
		cfg.Link.CS = *cs
		cfg.Link.HD = *hd
		cfg.Link.SCR = *scr
		cfg.Clock.RefClk = *refclk
		cfg.Clock.LineRate = *linerate
	}

	err = process(w, cfg, *lanes)
	if err != nil {
		log.Fatalf("could not display link configuration: %+v", err)
	}
}

func fromDB(dbname, name string) (linkcfg.Config, error) {
	var cfg linkcfg.Config

	db, err := conddb.Open(dbname)
	if err != nil {
		return cfg, fmt.Errorf("could not open configuration db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if name == "" {
		name, err = db.LastLink(ctx)
		if err != nil {
			return cfg, fmt.Errorf("could not get last link name: %w", err)
		}
		log.Printf("link: %q", name)
	}

	cfg.Link, err = db.Link(ctx, name)
	if err != nil {
		return cfg, fmt.Errorf("could not get link %q: %w", name, err)
	}

	cfg.Clock, err = db.ClockPlan(ctx, name)
	if err != nil {
		return cfg, fmt.Errorf("could not get clock plan of link %q: %w", name, err)
	}

	return cfg, nil
}
