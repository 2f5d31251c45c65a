// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"fmt"
	"io"

	"github.com/go-lpc/jesd/ilas"
	"github.com/go-lpc/jesd/internal/linkcfg"
)

func process(w io.Writer, cfg linkcfg.Config, lanes bool) error {
	set, err := cfg.Settings()
	if err != nil {
		return err
	}

	wbuf := bufio.NewWriter(w)
	defer wbuf.Flush()

	fmt.Fprintf(wbuf, "link:      %s\n", cfg.Link.Name)
	fmt.Fprintf(wbuf, "device:    did=%d bid=%d\n", set.DID, set.BID)
	fmt.Fprintf(wbuf, "physical:  L=%d M=%d N=%d NP=%d subclass=%d jesdv=%d\n",
		set.Phy.L, set.Phy.M, set.Phy.N, set.Phy.NP,
		set.Phy.SubclassV, set.Phy.JESDV,
	)
	fmt.Fprintf(wbuf, "transport: F=%d S=%d K=%d CS=%d HD=%v SCR=%v\n",
		set.Transport.F, set.Transport.S, set.Transport.K, set.Transport.CS,
		set.HD, set.Scrambled,
	)
	fmt.Fprintf(wbuf, "geometry:  nibbles/word=%d octets/frame=%d octets/lane=%d\n",
		set.NibblesPerWord, set.OctetsPerFrame, set.OctetsPerLane,
	)

	for lid, lane := range set.Configs() {
		if !lanes {
			fmt.Fprintf(wbuf, "lane %2d:   checksum=0x%02x\n", lid, set.Checksum(lid))
			continue
		}
		fmt.Fprintf(wbuf, "\n=== lane %d ===\n", lid)
		for _, id := range ilas.Fields() {
			if id == ilas.FCHK {
				continue
			}
			fmt.Fprintf(wbuf, "  %-10s %d\n", id.String()+":", lane.Get(id))
		}
		raw := lane.Octets()
		err = ilas.Dump(wbuf, raw[:])
		if err != nil {
			return fmt.Errorf("could not dump lane %d descriptor: %w", lid, err)
		}
		fmt.Fprintf(wbuf, "  checksum:  0x%02x\n", raw[ilas.Size-1])
	}

	fmt.Fprintf(wbuf, "\n=== clock ===\n")
	fmt.Fprintf(wbuf, "refclk:    %d Hz\n", cfg.Clock.RefClk)
	fmt.Fprintf(wbuf, "linerate:  %d bit/s\n", cfg.Clock.LineRate)

	// a missing PLL solution only disqualifies that PLL topology.
	cpll, err := cfg.Clock.Channel()
	if err != nil {
		fmt.Fprintf(wbuf, "channel PLL: %v\n", err)
	} else {
		fmt.Fprintf(wbuf, "%v", cpll)
	}

	qpll, err := cfg.Clock.Quad()
	if err != nil {
		fmt.Fprintf(wbuf, "quad PLL: %v\n", err)
	} else {
		fmt.Fprintf(wbuf, "%v", qpll)
	}

	return nil
}
