// Copyright 2021 The go-lpc Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package link

import (
	"fmt"
	"io"

	"github.com/go-daq/tdaq/log"
	"github.com/go-lpc/jesd/ilas"
	"golang.org/x/xerrors"
)

// State is the state of a lane transmitter or receiver.
type State int

const (
	StateCGS  State = iota // code group synchronization
	StateILAS              // initial lane alignment sequence
	StateData              // user data
)

func (st State) String() string {
	switch st {
	case StateCGS:
		return "CGS"
	case StateILAS:
		return "ILAS"
	case StateData:
		return "USER_DATA"
	}
	return fmt.Sprintf("State(%d)", int(st))
}

// minCGS is the number of consecutive /K/ characters a receiver needs
// to declare code group synchronization.
const minCGS = 4

func discard(msg log.MsgStream) log.MsgStream {
	if msg != nil {
		return msg
	}
	return log.NewMsgStream("link", log.LvlError, io.Discard)
}

// LaneTX is the link layer transmitter of a single lane.
//
// The transmitter sends /K/ characters until the receiver acknowledges
// code group synchronization, then the initial lane alignment sequence,
// then user data frames, scrambled (when enabled) and aligned.
type LaneTX struct {
	id  int
	set Settings
	msg log.MsgStream

	state State
	ilas  Frame
	pos   int

	scr *Scrambler
	aln *Aligner
}

// NewLaneTX creates the transmitter of lane lid.
func NewLaneTX(set Settings, lid int, msg log.MsgStream) (*LaneTX, error) {
	if lid < 0 || lid >= set.Phy.L {
		return nil, xerrors.Errorf("link: invalid lane id %d (lanes=%d)", lid, set.Phy.L)
	}
	seq, err := ILAS(set.Transport.F, set.Transport.K, set.Config(lid), true)
	if err != nil {
		return nil, xerrors.Errorf("link: could not build ILAS for lane %d: %w", lid, err)
	}
	return &LaneTX{
		id:    lid,
		set:   set,
		msg:   discard(msg),
		state: StateCGS,
		ilas:  seq,
		scr:   NewScrambler(),
		aln:   NewAligner(set.Transport.K, set.Scrambled),
	}, nil
}

// State returns the current state of the transmitter.
func (tx *LaneTX) State() State { return tx.state }

// Ready returns whether the transmitter sends user data.
func (tx *LaneTX) Ready() bool { return tx.state == StateData }

// SetSync updates the synchronization request from the receiver.
// A deasserted sync restarts code group synchronization.
func (tx *LaneTX) SetSync(ok bool) {
	switch {
	case !ok:
		if tx.state != StateCGS {
			tx.msg.Infof("lane %d: re-synchronization requested", tx.id)
		}
		tx.state = StateCGS
		tx.pos = 0
		tx.scr.Reset()
		tx.aln.Reset()
	case tx.state == StateCGS:
		tx.msg.Debugf("lane %d: starting ILAS", tx.id)
		tx.state = StateILAS
		tx.pos = 0
	}
}

// Frame returns the symbols to transmit during the next frame slot.
// The data octets are only consumed when the transmitter is ready.
func (tx *LaneTX) Frame(data []byte) (Frame, error) {
	f := tx.set.Transport.F
	if len(data) != f {
		return nil, xerrors.Errorf(
			"link: lane %d invalid frame size (got=%d, want=%d)",
			tx.id, len(data), f,
		)
	}

	switch tx.state {
	case StateCGS:
		return CGS(f), nil

	case StateILAS:
		out := make(Frame, f)
		copy(out, tx.ilas[tx.pos:tx.pos+f])
		tx.pos += f
		if tx.pos == len(tx.ilas) {
			tx.msg.Debugf("lane %d: ILAS done", tx.id)
			tx.state = StateData
		}
		return out, nil

	default:
		p := make([]byte, f)
		copy(p, data)
		if tx.set.Scrambled {
			tx.scr.Scramble(p)
		}
		return tx.aln.Insert(p), nil
	}
}

// LaneRX is the link layer receiver of a single lane.
type LaneRX struct {
	id  int
	set Settings
	msg log.MsgStream

	state State
	cgs   int
	ilas  Frame
	cfg   ilas.Config

	dsc *Descrambler
	aln *Aligner
}

// NewLaneRX creates the receiver of lane lid.
func NewLaneRX(set Settings, lid int, msg log.MsgStream) (*LaneRX, error) {
	if lid < 0 || lid >= set.Phy.L {
		return nil, xerrors.Errorf("link: invalid lane id %d (lanes=%d)", lid, set.Phy.L)
	}
	return &LaneRX{
		id:    lid,
		set:   set,
		msg:   discard(msg),
		state: StateCGS,
		dsc:   NewDescrambler(),
		aln:   NewAligner(set.Transport.K, set.Scrambled),
	}, nil
}

// State returns the current state of the receiver.
func (rx *LaneRX) State() State { return rx.state }

// Sync returns whether code group synchronization has been achieved.
func (rx *LaneRX) Sync() bool { return rx.state != StateCGS || rx.cgs >= minCGS }

// Config returns the link configuration received during ILAS.
func (rx *LaneRX) Config() ilas.Config { return rx.cfg }

func (rx *LaneRX) reset() {
	rx.state = StateCGS
	rx.cgs = 0
	rx.ilas = rx.ilas[:0]
}

// Frame processes the symbols received during a frame slot.
// Frame returns the user data octets once the link is established,
// and nil otherwise.
func (rx *LaneRX) Frame(frame Frame) ([]byte, error) {
	f := rx.set.Transport.F
	if len(frame) != f {
		return nil, xerrors.Errorf(
			"link: lane %d invalid frame size (got=%d, want=%d)",
			rx.id, len(frame), f,
		)
	}

	switch rx.state {
	case StateCGS:
		switch {
		case isCGS(frame):
			prev := rx.cgs
			rx.cgs += len(frame)
			if prev < minCGS && rx.cgs >= minCGS {
				rx.msg.Infof("lane %d: code group synchronization", rx.id)
			}
			return nil, nil
		case frame[0] == R && rx.cgs >= minCGS:
			rx.state = StateILAS
			rx.ilas = rx.ilas[:0]
			return rx.onILAS(frame)
		default:
			rx.cgs = 0
			return nil, nil
		}

	case StateILAS:
		return rx.onILAS(frame)

	default:
		if isCGS(frame) {
			rx.msg.Warnf("lane %d: link lost, back to code group synchronization", rx.id)
			rx.reset()
			rx.cgs = len(frame)
			return nil, nil
		}
		p, err := rx.aln.Remove(frame)
		if err != nil {
			return nil, xerrors.Errorf("link: lane %d could not remove alignment: %w", rx.id, err)
		}
		if rx.set.Scrambled {
			rx.dsc.Descramble(p)
		}
		return p, nil
	}
}

func (rx *LaneRX) onILAS(frame Frame) ([]byte, error) {
	rx.ilas = append(rx.ilas, frame...)
	n := ILASMultiframes * rx.set.Transport.F * rx.set.Transport.K
	if len(rx.ilas) < n {
		return nil, nil
	}

	cfg, err := ParseILAS(rx.ilas, rx.set.Transport.F, rx.set.Transport.K)
	if err != nil {
		rx.reset()
		return nil, xerrors.Errorf("link: lane %d invalid ILAS: %w", rx.id, err)
	}
	if int(cfg.LID) != rx.id {
		rx.reset()
		return nil, xerrors.Errorf("link: lane %d received configuration of lane %d", rx.id, cfg.LID)
	}
	err = rx.set.Match(cfg)
	if err != nil {
		rx.reset()
		return nil, xerrors.Errorf("link: lane %d invalid ILAS configuration: %w", rx.id, err)
	}

	rx.msg.Debugf("lane %d: ILAS done (checksum=0x%02x)", rx.id, cfg.FCHK)
	rx.cfg = cfg
	rx.state = StateData
	rx.dsc.Reset()
	rx.aln.Reset()
	return nil, nil
}

func isCGS(f Frame) bool {
	for _, s := range f {
		if s != K {
			return false
		}
	}
	return len(f) > 0
}
