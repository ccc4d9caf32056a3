// Package ym2612 tracks the register state of the YM2612 FM synthesizer: six
// channels of four operators each, plus the chip-global LFO and DAC
// parameters. It consumes register writes one at a time, in recording order,
// and reports per-channel key on/off edges. It does not synthesize audio.
package ym2612

import (
	"fmt"

	"github.com/vgmtools/fmrip"
	"github.com/vgmtools/fmrip/vgm"
)

const (
	// NumChannels is the channel count of the chip; three per port.
	NumChannels = 6
	// NumOperators is the operator count of one channel.
	NumOperators = 4
)

// SpecialModeChannel is the global index of the channel that register 0x27
// can switch into per-operator pitch mode ("channel 3" in chip parlance).
const SpecialModeChannel = 2

type (
	// Config selects how the state machine reacts to register writes it has
	// no model for. Strict turns silently ignored writes into errors.
	Config struct {
		Strict bool
	}

	// Channel is the live state of one FM channel.
	Channel struct {
		Operators [NumOperators]fmrip.Operator
		Algorithm int
		Feedback  int
		Pan       int
		AMS       int
		FMS       int
		Frequency int
		Octave    int

		// Special is only ever set on channel SpecialModeChannel, giving
		// each of its operators an independent pitch.
		Special bool

		// KeyOn is the last key level seen, used for edge detection.
		KeyOn bool
	}

	// State is the simulated chip. One State is owned by exactly one decode
	// run and stepped once per FM register write, in file order; it is
	// never rolled back.
	State struct {
		Channels [NumChannels]Channel

		LFOFrequency *int // nil = LFO disabled
		DACEnabled   bool
		DACValue     int

		cfg Config
	}

	// Edge is a transition of a channel's key-on level.
	Edge int

	// Report is the outcome of one Step: the key edge (if any) of every
	// channel, and how many commands the step consumed. Advance is reserved
	// for multi-command register protocols and is currently always 1.
	Report struct {
		Edges   [NumChannels]Edge
		Advance int
	}

	// Error is a fatal chip-level failure, carrying the port, register and
	// value of the write that triggered it.
	Error struct {
		Port     int
		Register byte
		Value    byte
		Msg      string
	}
)

const (
	EdgeNone Edge = iota
	EdgeDown
	EdgeUp
)

func (e *Error) Error() string {
	return fmt.Sprintf("port %d register 0x%02X value 0x%02X: %s", e.Port, e.Register, e.Value, e.Msg)
}

// NewState returns a powered-on chip with all registers zeroed and the LFO
// disabled.
func NewState(cfg Config) *State {
	return &State{cfg: cfg}
}

// keyChannel maps the low three bits of a key on/off write to a global
// channel index. The encoding skips 0b011 and 0b111; those patterns select
// no channel at all.
var keyChannel = map[byte]int{
	0b000: 0,
	0b001: 1,
	0b010: 2,
	0b100: 3,
	0b101: 4,
	0b110: 5,
}

// opSlot maps a register byte reduced modulo 0x10 to a (channel-local,
// operator) pair. Registers 0x*3, 0x*7, 0x*B and 0x*F address nothing.
var opSlot = map[byte][2]int{
	0x00: {0, 0}, 0x01: {1, 0}, 0x02: {2, 0},
	0x04: {0, 1}, 0x05: {1, 1}, 0x06: {2, 1},
	0x08: {0, 2}, 0x09: {1, 2}, 0x0A: {2, 2},
	0x0C: {0, 3}, 0x0D: {1, 3}, 0x0E: {2, 3},
}

// channelOperator resolves an operator register to a global channel and
// operator index; port 1 addresses channels 3-5.
func channelOperator(port int, reg byte) (channel, operator int, ok bool) {
	slot, ok := opSlot[reg%0x10]
	if !ok {
		return 0, 0, false
	}
	return slot[0] + 3*port, slot[1], true
}

// Step applies one YM2612 register write to the chip and reports any key
// edges it caused. Only FM writes belong here; Wait and databank commands
// are the caller's bookkeeping and PSG writes target the other chip.
// Non-fatal oddities go to diag, which may be nil.
func (s *State) Step(w vgm.Write, diag *fmrip.Diagnostics) (Report, error) {
	rep := Report{Advance: 1}
	r, v := w.Register, w.Value
	switch {
	case r == 0x28: // key on/off
		ch, ok := keyChannel[v&0x07]
		if !ok {
			// non-channel sentinel, no edge anywhere
			return rep, nil
		}
		keyOn := v&0xF0 != 0
		if keyOn != s.Channels[ch].KeyOn {
			if keyOn {
				rep.Edges[ch] = EdgeDown
			} else {
				rep.Edges[ch] = EdgeUp
			}
			s.Channels[ch].KeyOn = keyOn
		}
	case r == 0x22: // LFO control
		if v&0x08 != 0 {
			freq := int(v & 0x07)
			s.LFOFrequency = &freq
		} else {
			s.LFOFrequency = nil
		}
	case r == 0x27: // channel 3 mode; timer load bits not modeled
		s.Channels[SpecialModeChannel].Special = v&0xC0 == 0x40
	case r >= 0x24 && r <= 0x26: // timer registers, not modeled
	case r == 0x2B:
		s.DACEnabled = v&0x80 != 0
	case r == 0x2A:
		if !s.DACEnabled {
			diag.Warnf("DAC value write while DAC is disabled")
		}
		s.DACValue = int(v)
	case r >= 0x30 && r <= 0x9F:
		if err := s.writeOperator(w); err != nil {
			return rep, err
		}
	case r >= 0xA0 && r <= 0xAF:
		if err := s.writeFrequency(w, diag); err != nil {
			return rep, err
		}
	// 0xB3 and 0xB7 address no channel (the +3*port formula would land on
	// a seventh one); they take the default path below.
	case r >= 0xB0 && r <= 0xB2: // feedback + algorithm
		ch := int(r-0xB0) + 3*w.Port
		s.Channels[ch].Feedback = int(v>>3) & 0x07
		s.Channels[ch].Algorithm = int(v) & 0x07
	case r >= 0xB4 && r <= 0xB6: // pan + LFO sensitivities
		ch := int(r-0xB4) + 3*w.Port
		s.Channels[ch].Pan = int(v>>6) & 0x03
		s.Channels[ch].AMS = int(v>>3) & 0x07
		s.Channels[ch].FMS = int(v) & 0x03
	default:
		if s.cfg.Strict {
			return rep, &Error{Port: w.Port, Register: r, Value: v, Msg: "unknown register"}
		}
	}
	return rep, nil
}

// writeOperator handles the per-operator parameter registers 0x30-0x9F.
// Registers that resolve to no operator are silently ignored, except in the
// sustain-rate range 0x70-0x7F where they fail hard. The asymmetry is
// deliberate; both behaviors are relied on by existing rips.
func (s *State) writeOperator(w vgm.Write) error {
	r, v := w.Register, w.Value
	ch, opIdx, ok := channelOperator(w.Port, r)
	if !ok {
		if r >= 0x70 && r <= 0x7F {
			return &Error{Port: w.Port, Register: r, Value: v, Msg: "cannot resolve channel/operator"}
		}
		return nil
	}
	op := &s.Channels[ch].Operators[opIdx]
	switch {
	case r <= 0x3F: // detune + multiplier
		op.Detune = int(v>>4) & 0x07
		op.Multiplier = int(v) & 0x0F
	case r <= 0x4F: // total level
		op.TotalLevel = int(v) & 0x7F
	case r <= 0x5F: // key scaling + attack rate
		op.KeyScaling = int(v>>6) & 0x03
		op.AttackRate = int(v) & 0x1F
	case r <= 0x6F: // amplitude modulation + decay rate
		op.AmplitudeMod = v&0x80 != 0
		op.DecayRate = int(v) & 0x1F
	case r <= 0x7F: // sustain rate
		op.SustainRate = int(v) & 0x1F
	case r <= 0x8F: // sustain level + release rate
		op.SustainLevel = int(v>>4)&0x0F | 0x10
		op.ReleaseRate = int(v)&0x0F | 0x10
	default: // SSG-EG
		op.SSGEG = int(v) & 0x0F
	}
	return nil
}

// specialSlot maps the supplementary frequency registers 0xA8-0xAA (and
// their octave counterparts 0xAC-0xAE) to the operator they pitch while the
// special mode is active. Operator 0 is pitched through the channel's
// ordinary 0xA2/0xA6 registers instead.
var specialSlot = map[byte]int{
	0xA8: 1, 0xA9: 2, 0xAA: 3,
	0xAC: 1, 0xAD: 2, 0xAE: 3,
}

// writeFrequency handles the channel frequency/octave registers 0xA0-0xAF,
// including the special-mode per-operator variants.
func (s *State) writeFrequency(w vgm.Write, diag *fmrip.Diagnostics) error {
	r, v := w.Register, w.Value
	switch {
	case r <= 0xA2: // frequency low byte
		ch := &s.Channels[int(r-0xA0)+3*w.Port]
		if ch.Special {
			op := &ch.Operators[0]
			op.SpecialFrequency = op.SpecialFrequency&^0xFF | int(v)
		} else {
			ch.Frequency = ch.Frequency&^0xFF | int(v)
		}
	case r >= 0xA4 && r <= 0xA6: // frequency high bits + octave
		ch := &s.Channels[int(r-0xA4)+3*w.Port]
		if ch.Special {
			op := &ch.Operators[0]
			op.SpecialFrequency = op.SpecialFrequency&0xFF | int(v&0x07)<<8
			op.SpecialOctave = int(v>>3) & 0x07
		} else {
			ch.Frequency = ch.Frequency&0xFF | int(v&0x07)<<8
			ch.Octave = int(v>>3) & 0x07
		}
	case r >= 0xA8 && r <= 0xAA: // special mode operator frequency low byte
		ch := &s.Channels[SpecialModeChannel]
		if !ch.Special {
			diag.Warnf("write to special mode frequency register 0x%02X while special mode is off", r)
			return nil
		}
		op := &ch.Operators[specialSlot[r]]
		op.SpecialFrequency = op.SpecialFrequency&^0xFF | int(v)
	case r >= 0xAC && r <= 0xAE: // special mode operator frequency high + octave
		ch := &s.Channels[SpecialModeChannel]
		if !ch.Special {
			diag.Warnf("write to special mode frequency register 0x%02X while special mode is off", r)
			return nil
		}
		op := &ch.Operators[specialSlot[r]]
		op.SpecialFrequency = op.SpecialFrequency&0xFF | int(v&0x07)<<8
		op.SpecialOctave = int(v>>3) & 0x07
	default: // 0xA3, 0xA7, 0xAB, 0xAF
		return &Error{Port: w.Port, Register: r, Value: v, Msg: "unresolvable frequency register"}
	}
	return nil
}

// Snapshot deep-copies the instrument currently programmed on a channel,
// together with the chip's LFO frequency. The result shares no storage with
// the live state.
func (s *State) Snapshot(channel int) fmrip.Instrument {
	ch := &s.Channels[channel]
	inst := fmrip.Instrument{
		Operators: ch.Operators, // arrays copy by value
		Algorithm: ch.Algorithm,
		Feedback:  ch.Feedback,
		Pan:       ch.Pan,
		AMS:       ch.AMS,
		FMS:       ch.FMS,
	}
	if s.LFOFrequency != nil {
		freq := *s.LFOFrequency
		inst.LFOFrequency = &freq
	}
	return inst
}
