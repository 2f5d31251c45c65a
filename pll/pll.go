// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pll computes the divider settings of the transceiver clock
// synthesizers driving a JESD204B link at a given line rate.
//
// Two topologies are supported:
//   - a channel PLL, dedicated to a single lane,
//   - a quad PLL, shared by the lanes of a transceiver quad, with two VCOs
//     covering different frequency bands.
//
// Searches are exact: a configuration is only returned when it reproduces
// the requested line rate exactly.
package pll // import "github.com/go-lpc/jesd/pll"

import (
	"errors"
	"fmt"
)

var (
	ErrNoConfig = errors.New("pll: no config found")
)

const (
	ghz = 1e9
	mhz = 1e6
)

// channel PLL search space.
var (
	cpllN1 = []int{4, 5}
	cpllN2 = []int{1, 2, 3, 4, 5}
	cpllM  = []int{1, 2}

	cpllVCOMin int64 = 2_000_000_000
	cpllVCOMax int64 = 6_250_000_000
)

// quad PLL search space.
var (
	qpllN = []int{
		16, 20, 32, 40, 60, 64, 66, 75, 80,
		84, 90, 96, 100, 112, 120, 125, 150, 160,
	}
	qpllM = []int{1, 2, 3, 4}

	qpll1Min int64 = 8_000_000_000
	qpll1Max int64 = 13_000_000_000
	qpll0Min int64 = 9_800_000_000
	qpll0Max int64 = 16_375_000_000
)

// output dividers.
var dividers = []int{1, 2, 4, 8, 16}

// ChannelConfig is the configuration of a channel PLL.
//
//	VCO      = RefClk x (N1 x N2) / M
//	LineRate = VCO x 2 / D
type ChannelConfig struct {
	N1 int
	N2 int
	M  int
	D  int

	RefClk   int64   // reference clock frequency (Hz)
	VCO      float64 // VCO frequency (Hz)
	LineRate int64   // line rate (bit/s)
}

// ComputeChannel returns the first channel PLL configuration reproducing
// linerate from the refclk reference clock, iterating over N1, N2, M and
// then D in ascending order.
func ComputeChannel(refclk, linerate int64) (ChannelConfig, error) {
	for _, n1 := range cpllN1 {
		for _, n2 := range cpllN2 {
			for _, m := range cpllM {
				// vco = refclk*n1*n2/m
				num := refclk * int64(n1*n2)
				den := int64(m)
				if num < cpllVCOMin*den || num > cpllVCOMax*den {
					continue
				}
				for _, d := range dividers {
					// vco*2/d == linerate
					if 2*num != linerate*den*int64(d) {
						continue
					}
					return ChannelConfig{
						N1:       n1,
						N2:       n2,
						M:        m,
						D:        d,
						RefClk:   refclk,
						VCO:      float64(num) / float64(den),
						LineRate: linerate,
					}, nil
				}
			}
		}
	}
	return ChannelConfig{}, &NoConfigError{RefClk: refclk, LineRate: linerate}
}

func (cfg ChannelConfig) String() string {
	return fmt.Sprintf(`
ChannelPLL
==========
  overview:
  ---------
       +--------------------------------------------------+
       |                                                  |
       |   +-----+  +---------------------------+ +-----+ |
       |   |     |  | Phase Frequency Detector  | |     | |
CLKIN +----> /M  +-->       Charge Pump         +-> VCO +---> CLKOUT
       |   |     |  |       Loop Filter         | |     | |
       |   +-----+  +---------------------------+ +--+--+ |
       |              ^                              |    |
       |              |    +-------+    +-------+    |    |
       |              +----+  /N2  <----+  /N1  <----+    |
       |                   +-------+    +-------+         |
       +--------------------------------------------------+
                            +-------+
                   CLKOUT +->  2/D  +-> LINERATE
                            +-------+
  config:
  -------
    CLKIN    = %[1]gMHz
    CLKOUT   = CLKIN x (N1 x N2) / M = %[1]gMHz x (%[2]d x %[3]d) / %[4]d
             = %[5]gGHz
    LINERATE = CLKOUT x 2 / D = %[5]gGHz x 2 / %[6]d
             = %[7]gGHz
`,
		float64(cfg.RefClk)/mhz,
		cfg.N1, cfg.N2, cfg.M,
		cfg.VCO/ghz,
		cfg.D,
		float64(cfg.LineRate)/ghz,
	)
}

// QPLL identifies one of the two VCOs of a quad PLL.
type QPLL string

const (
	QPLL0 QPLL = "qpll0" // high band VCO
	QPLL1 QPLL = "qpll1" // low band VCO
)

// QuadConfig is the configuration of a quad PLL.
//
//	VCO      = RefClk x N / M
//	ClkOut   = VCO / 2
//	LineRate = ClkOut x 2 / D
type QuadConfig struct {
	N    int
	M    int
	D    int
	QPLL QPLL

	RefClk   int64   // reference clock frequency (Hz)
	VCO      float64 // VCO frequency (Hz)
	ClkOut   float64 // output clock frequency (Hz)
	LineRate int64   // line rate (bit/s)
}

// ComputeQuad returns the first quad PLL configuration reproducing
// linerate from the refclk reference clock, iterating over N, M and
// then D in ascending order.
// VCO frequencies inside the QPLL1 band are assigned to QPLL1, even when
// they also fall inside the QPLL0 band.
func ComputeQuad(refclk, linerate int64) (QuadConfig, error) {
	for _, n := range qpllN {
		for _, m := range qpllM {
			num := refclk * int64(n)
			den := int64(m)

			var qpll QPLL
			switch {
			case qpll1Min*den <= num && num <= qpll1Max*den:
				qpll = QPLL1
			case qpll0Min*den <= num && num <= qpll0Max*den:
				qpll = QPLL0
			default:
				continue
			}

			for _, d := range dividers {
				// (vco/2)*2/d == linerate
				if num != linerate*den*int64(d) {
					continue
				}
				vco := float64(num) / float64(den)
				return QuadConfig{
					N:        n,
					M:        m,
					D:        d,
					QPLL:     qpll,
					RefClk:   refclk,
					VCO:      vco,
					ClkOut:   vco / 2,
					LineRate: linerate,
				}, nil
			}
		}
	}
	return QuadConfig{}, &NoConfigError{RefClk: refclk, LineRate: linerate}
}

func (cfg QuadConfig) String() string {
	return fmt.Sprintf(`
QuadPLL
=======
  overview:
  ---------
       +-------------------------------------------------------------++
       |                                          +------------+      |
       |   +-----+  +---------------------------+ |   QPLL0    | +--+ |
       |   |     |  | Phase Frequency Detector  +->    VCO     | |  | |
CLKIN +----> /M  +-->       Charge Pump         | +------------+->/2+--> CLKOUT
       |   |     |  |       Loop Filter         +->   QPLL1    | |  | |
       |   +-----+  +---------------------------+ |    VCO     | +--+ |
       |              ^                           +-----+------+      |
       |              |        +-------+                |             |
       |              +--------+  /N   <----------------+             |
       |                       +-------+                              |
       +--------------------------------------------------------------+
                               +-------+
                      CLKOUT +->  2/D  +-> LINERATE
                               +-------+
  config:
  -------
    CLKIN    = %[1]gMHz
    CLKOUT   = CLKIN x N / (2 x M) = %[1]gMHz x %[2]d / (2 x %[3]d)
             = %[4]gGHz
    VCO      = %[5]gGHz (%[6]s)
    LINERATE = CLKOUT x 2 / D = %[4]gGHz x 2 / %[7]d
             = %[8]gGHz
`,
		float64(cfg.RefClk)/mhz,
		cfg.N, cfg.M,
		cfg.ClkOut/ghz,
		cfg.VCO/ghz,
		cfg.QPLL.upper(),
		cfg.D,
		float64(cfg.LineRate)/ghz,
	)
}

func (q QPLL) upper() string {
	switch q {
	case QPLL0:
		return "QPLL0"
	case QPLL1:
		return "QPLL1"
	}
	return string(q)
}

// NoConfigError is returned when no divider combination reproduces
// exactly the requested line rate.
type NoConfigError struct {
	RefClk   int64 // Hz
	LineRate int64 // bit/s
}

func (e *NoConfigError) Error() string {
	return fmt.Sprintf(
		"pll: no config found for %3.2f MHz refclk / %3.2f Gbps linerate",
		float64(e.RefClk)/mhz, float64(e.LineRate)/ghz,
	)
}

func (e *NoConfigError) Unwrap() error { return ErrNoConfig }
