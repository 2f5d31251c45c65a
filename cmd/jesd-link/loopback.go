// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"math/rand"

	"github.com/go-daq/tdaq"
	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/jesd/link"
	"golang.org/x/sync/errgroup"
)

// loopback connects the transmitter of each lane to its receiver.
type loopback struct {
	set link.Settings
	txs []*link.LaneTX
	rxs []*link.LaneRX
	rnd []*rand.Rand // pseudo-random user data, one source per lane

	frames int64 // number of user frames checked, per lane
	slots  int64 // number of frame slots
}

func newLoopback(set link.Settings, seed int64, msg log.MsgStream) (*loopback, error) {
	lp := &loopback{
		set: set,
		txs: make([]*link.LaneTX, set.Phy.L),
		rxs: make([]*link.LaneRX, set.Phy.L),
		rnd: make([]*rand.Rand, set.Phy.L),
	}
	for i := 0; i < set.Phy.L; i++ {
		var err error
		lp.txs[i], err = link.NewLaneTX(set, i, msg)
		if err != nil {
			return nil, fmt.Errorf("could not create TX of lane %d: %w", i, err)
		}
		lp.rxs[i], err = link.NewLaneRX(set, i, msg)
		if err != nil {
			return nil, fmt.Errorf("could not create RX of lane %d: %w", i, err)
		}
		lp.rnd[i] = rand.New(rand.NewSource(seed + int64(i)))
	}
	return lp, nil
}

// step runs one frame slot on every lane, and returns the transmitted
// symbols of each lane.
func (lp *loopback) step() ([]link.Frame, error) {
	var (
		grp   errgroup.Group
		out   = make([]link.Frame, len(lp.txs))
		ready = make([]bool, len(lp.txs))
	)
	for i := range lp.txs {
		i := i
		grp.Go(func() error {
			var (
				tx = lp.txs[i]
				rx = lp.rxs[i]
			)
			tx.SetSync(rx.Sync())

			payload := make([]byte, lp.set.Transport.F)
			ready[i] = tx.Ready()
			if ready[i] {
				_, _ = lp.rnd[i].Read(payload)
			}

			frame, err := tx.Frame(payload)
			if err != nil {
				return fmt.Errorf("lane %d: could not transmit frame: %w", i, err)
			}
			out[i] = frame

			got, err := rx.Frame(frame)
			if err != nil {
				return fmt.Errorf("lane %d: could not receive frame: %w", i, err)
			}

			switch {
			case ready[i] && !bytes.Equal(got, payload):
				return fmt.Errorf(
					"lane %d: round-trip mismatch (frame=%d): got=%x, want=%x",
					i, lp.frames, got, payload,
				)
			case !ready[i] && got != nil:
				return fmt.Errorf("lane %d: unexpected user data %x", i, got)
			}
			return nil
		})
	}

	err := grp.Wait()
	if err != nil {
		return nil, err
	}

	lp.slots++
	if ready[0] {
		lp.frames++
	}
	return out, nil
}

// encodeLanes encodes the symbols of all the lanes for a frame slot.
func encodeLanes(frames []link.Frame) ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := tdaq.NewEncoder(buf)
	enc.WriteU32(uint32(len(frames)))
	for _, frame := range frames {
		enc.WriteU32(uint32(len(frame)))
		for _, sym := range frame {
			enc.WriteU16(uint16(sym))
		}
	}
	if err := enc.Err(); err != nil {
		return nil, fmt.Errorf("could not encode lanes: %w", err)
	}
	return buf.Bytes(), nil
}
