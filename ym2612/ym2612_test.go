package ym2612_test

import (
	"testing"

	"github.com/vgmtools/fmrip"
	"github.com/vgmtools/fmrip/vgm"
	"github.com/vgmtools/fmrip/ym2612"
)

func fmWrite(port int, reg, val byte) vgm.Write {
	return vgm.Write{Chip: vgm.ChipYM2612, Port: port, Register: reg, Value: val}
}

func step(t *testing.T, s *ym2612.State, port int, reg, val byte) ym2612.Report {
	t.Helper()
	rep, err := s.Step(fmWrite(port, reg, val), nil)
	if err != nil {
		t.Fatalf("step port %d reg 0x%02X val 0x%02X: %v", port, reg, val, err)
	}
	return rep
}

func onlyEdge(t *testing.T, rep ym2612.Report, channel int, edge ym2612.Edge) {
	t.Helper()
	for ch, e := range rep.Edges {
		want := ym2612.EdgeNone
		if ch == channel {
			want = edge
		}
		if e != want {
			t.Fatalf("channel %d: got edge %v, expected %v", ch, e, want)
		}
	}
}

func TestKeyEdges(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	onlyEdge(t, step(t, s, 0, 0x28, 0xF0), 0, ym2612.EdgeDown)
	// same level again: no edge
	onlyEdge(t, step(t, s, 0, 0x28, 0xF0), -1, ym2612.EdgeNone)
	// partial operator mask still counts as key down
	onlyEdge(t, step(t, s, 0, 0x28, 0x10), -1, ym2612.EdgeNone)
	onlyEdge(t, step(t, s, 0, 0x28, 0x00), 0, ym2612.EdgeUp)
	if s.Channels[0].KeyOn {
		t.Fatal("channel 0 should be keyed off")
	}
}

func TestKeyChannelMap(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	for _, c := range []struct {
		bits    byte
		channel int
	}{{0b000, 0}, {0b001, 1}, {0b010, 2}, {0b100, 3}, {0b101, 4}, {0b110, 5}} {
		onlyEdge(t, step(t, s, 0, 0x28, 0xF0|c.bits), c.channel, ym2612.EdgeDown)
	}
}

func TestKeySentinelChannel(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	onlyEdge(t, step(t, s, 0, 0x28, 0xF7), -1, ym2612.EdgeNone)
	onlyEdge(t, step(t, s, 0, 0x28, 0xF3), -1, ym2612.EdgeNone)
}

func TestOperatorRegisters(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0x30, 0x75) // ch 0 op 0: detune 7, multiplier 5
	step(t, s, 0, 0x44, 0x7F) // ch 0 op 1: total level
	step(t, s, 0, 0x59, 0xDF) // ch 1 op 2: key scaling 3, attack 31
	step(t, s, 0, 0x6E, 0x95) // ch 2 op 3: AM on, decay 21
	step(t, s, 0, 0x70, 0x1F) // ch 0 op 0: sustain rate
	step(t, s, 0, 0x80, 0xA5) // ch 0 op 0: sustain level, release
	step(t, s, 0, 0x90, 0x0F) // ch 0 op 0: SSG-EG
	step(t, s, 1, 0x42, 0x33) // port 1: ch 5 op 0 total level

	op := &s.Channels[0].Operators[0]
	if op.Detune != 7 || op.Multiplier != 5 {
		t.Fatalf("detune/multiplier: got %d/%d, expected 7/5", op.Detune, op.Multiplier)
	}
	if op.SustainRate != 0x1F {
		t.Fatalf("sustain rate: got %d", op.SustainRate)
	}
	if op.SustainLevel != 0x0A|0x10 || op.ReleaseRate != 0x05|0x10 {
		t.Fatalf("sustain level/release: got %d/%d", op.SustainLevel, op.ReleaseRate)
	}
	if op.SSGEG != 0x0F {
		t.Fatalf("ssg-eg: got %d", op.SSGEG)
	}
	if got := s.Channels[0].Operators[1].TotalLevel; got != 0x7F {
		t.Fatalf("total level: got %d", got)
	}
	if op := &s.Channels[1].Operators[2]; op.KeyScaling != 3 || op.AttackRate != 31 {
		t.Fatalf("key scaling/attack: got %d/%d", op.KeyScaling, op.AttackRate)
	}
	if op := &s.Channels[2].Operators[3]; !op.AmplitudeMod || op.DecayRate != 21 {
		t.Fatalf("am/decay: got %v/%d", op.AmplitudeMod, op.DecayRate)
	}
	if got := s.Channels[5].Operators[0].TotalLevel; got != 0x33 {
		t.Fatalf("port 1 write should land on channel 5, total level got %d", got)
	}
}

// Unmappable operator registers are ignored everywhere except the sustain
// rate range, where they fail. Historical behavior, kept as-is.
func TestUnmappableOperatorRegisters(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	for _, reg := range []byte{0x33, 0x4B, 0x67, 0x8F, 0x93} {
		if _, err := s.Step(fmWrite(0, reg, 0xFF), nil); err != nil {
			t.Errorf("register 0x%02X should be ignored, got %v", reg, err)
		}
	}
	if _, err := s.Step(fmWrite(0, 0x73, 0xFF), nil); err == nil {
		t.Fatal("an unmappable write in 0x70-0x7F should be fatal")
	}
}

func TestLFOControl(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0x22, 0x0B)
	if s.LFOFrequency == nil || *s.LFOFrequency != 3 {
		t.Fatalf("LFO should be enabled at frequency 3, got %v", s.LFOFrequency)
	}
	step(t, s, 0, 0x22, 0x03) // enable bit clear
	if s.LFOFrequency != nil {
		t.Fatalf("LFO should be disabled, got %v", *s.LFOFrequency)
	}
}

func TestDACValueWhileDisabledWarns(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	var diag fmrip.Diagnostics
	if _, err := s.Step(fmWrite(0, 0x2A, 0x80), &diag); err != nil {
		t.Fatalf("a DAC write while disabled must not be fatal: %v", err)
	}
	if len(diag.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", diag.Warnings)
	}
	step(t, s, 0, 0x2B, 0x80)
	if _, err := s.Step(fmWrite(0, 0x2A, 0x7F), &diag); err != nil {
		t.Fatal(err)
	}
	if len(diag.Warnings) != 1 {
		t.Fatalf("no new warning expected once the DAC is enabled, got %v", diag.Warnings)
	}
	if !s.DACEnabled || s.DACValue != 0x7F {
		t.Fatalf("DAC state: enabled=%v value=%d", s.DACEnabled, s.DACValue)
	}
}

func TestChannelRegisters(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0xB1, 0x3C) // ch 1: feedback 7, algorithm 4
	step(t, s, 1, 0xB4, 0xEA) // ch 3: pan 3, ams 5, fms 2
	if ch := &s.Channels[1]; ch.Feedback != 7 || ch.Algorithm != 4 {
		t.Fatalf("feedback/algorithm: got %d/%d", ch.Feedback, ch.Algorithm)
	}
	if ch := &s.Channels[3]; ch.Pan != 3 || ch.AMS != 5 || ch.FMS != 2 {
		t.Fatalf("pan/ams/fms: got %d/%d/%d", ch.Pan, ch.AMS, ch.FMS)
	}
}

func TestChannelRegisterGapsAddressNothing(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	for _, reg := range []byte{0xB3, 0xB7} {
		if _, err := s.Step(fmWrite(1, reg, 0xFF), nil); err != nil {
			t.Errorf("register 0x%02X should be ignored, got %v", reg, err)
		}
	}
	for ch := range s.Channels {
		if c := &s.Channels[ch]; c.Feedback != 0 || c.Algorithm != 0 || c.Pan != 0 {
			t.Fatalf("channel %d touched by a gap register write", ch)
		}
	}
	strict := ym2612.NewState(ym2612.Config{Strict: true})
	if _, err := strict.Step(fmWrite(0, 0xB3, 0xFF), nil); err == nil {
		t.Fatal("gap registers should be fatal in strict mode")
	}
}

func TestFrequencyRegisters(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0xA4, 0x2E) // high bits + octave first, as the chip expects
	step(t, s, 0, 0xA0, 0x69)
	if ch := &s.Channels[0]; ch.Frequency != 0x669 || ch.Octave != 5 {
		t.Fatalf("frequency/octave: got 0x%X/%d, expected 0x669/5", ch.Frequency, ch.Octave)
	}
	step(t, s, 1, 0xA5, 0x0A)
	step(t, s, 1, 0xA1, 0x22)
	if ch := &s.Channels[4]; ch.Frequency != 0x222 || ch.Octave != 1 {
		t.Fatalf("port 1 frequency should land on channel 4: got 0x%X/%d", ch.Frequency, ch.Octave)
	}
}

func TestUnresolvableFrequencyRegisterIsFatal(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	for _, reg := range []byte{0xA3, 0xA7, 0xAB, 0xAF} {
		if _, err := s.Step(fmWrite(0, reg, 0x00), nil); err == nil {
			t.Errorf("register 0x%02X should be fatal", reg)
		}
	}
}

func TestSpecialModeFrequencies(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0xA6, 0x15)
	step(t, s, 0, 0xA2, 0x34) // ordinary channel 2 pitch while special mode off
	step(t, s, 0, 0x27, 0x40) // enter special mode
	if !s.Channels[2].Special {
		t.Fatal("register 0x27 value 0x40 should enable the special mode")
	}
	step(t, s, 0, 0xA8, 0x7B) // operator 2 frequency low byte
	ch := &s.Channels[2]
	if got := ch.Operators[1].SpecialFrequency; got != 0x7B {
		t.Fatalf("operator 2 special frequency: got 0x%X, expected 0x7B", got)
	}
	if ch.Frequency != 0x534 {
		t.Fatalf("the channel's ordinary frequency must stay untouched, got 0x%X", ch.Frequency)
	}
	step(t, s, 0, 0xAC, 0x09) // operator 2 frequency high + octave
	if op := &ch.Operators[1]; op.SpecialFrequency != 0x17B || op.SpecialOctave != 1 {
		t.Fatalf("operator 2 special pitch: got 0x%X/%d", op.SpecialFrequency, op.SpecialOctave)
	}
	// while special mode is on, 0xA2/0xA6 pitch operator 0 instead
	step(t, s, 0, 0xA6, 0x08)
	step(t, s, 0, 0xA2, 0x11)
	if op := &ch.Operators[0]; op.SpecialFrequency != 0x011 || op.SpecialOctave != 1 {
		t.Fatalf("operator 0 special pitch: got 0x%X/%d", op.SpecialFrequency, op.SpecialOctave)
	}
	if ch.Frequency != 0x534 {
		t.Fatalf("ordinary frequency overwritten in special mode: 0x%X", ch.Frequency)
	}
	step(t, s, 0, 0x27, 0x00)
	if s.Channels[2].Special {
		t.Fatal("clearing bits 6-7 should leave the special mode")
	}
}

func TestSpecialModeWriteWhileInactiveWarns(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	var diag fmrip.Diagnostics
	if _, err := s.Step(fmWrite(0, 0xA9, 0x55), &diag); err != nil {
		t.Fatalf("must not be fatal: %v", err)
	}
	if len(diag.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", diag.Warnings)
	}
	if got := s.Channels[2].Operators[2].SpecialFrequency; got != 0 {
		t.Fatalf("the write should be ignored, got 0x%X", got)
	}
}

func TestStrictMode(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	if _, err := s.Step(fmWrite(0, 0x10, 0xFF), nil); err != nil {
		t.Fatalf("unknown registers are ignored by default: %v", err)
	}
	strict := ym2612.NewState(ym2612.Config{Strict: true})
	if _, err := strict.Step(fmWrite(0, 0x10, 0xFF), nil); err == nil {
		t.Fatal("unknown registers should be fatal in strict mode")
	}
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := ym2612.NewState(ym2612.Config{})
	step(t, s, 0, 0x30, 0x11)
	step(t, s, 0, 0x22, 0x0F)
	inst := s.Snapshot(0)
	step(t, s, 0, 0x30, 0x77)
	step(t, s, 0, 0x22, 0x00)
	if inst.Operators[0].Multiplier != 1 {
		t.Fatal("snapshot must not follow later state changes")
	}
	if inst.LFOFrequency == nil || *inst.LFOFrequency != 7 {
		t.Fatal("snapshot must keep the LFO frequency it was taken with")
	}
}
