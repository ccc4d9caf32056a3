package export

import (
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/vgmtools/fmrip/rip"
)

const (
	// All VGM timing is in 44100 Hz samples.
	sampleRate = 44100

	// Exported files use a fixed tempo; note placement comes entirely from
	// the recorded sample times.
	tempoBPM        = 120.0
	ticksPerQuarter = 960
	ticksPerSecond  = ticksPerQuarter * tempoBPM / 60

	noteVelocity = 100

	// The usual NTSC MegaDrive master clock / 7. Used when the recording
	// header carries no FM clock.
	defaultFMClock = 7670454
)

// Notes writes the extracted key edges as a single-track standard MIDI
// file. Each FM channel maps to the MIDI channel of the same number; pitch
// comes from the F-number and block that were programmed at each key-on.
func Notes(w io.Writer, notes []rip.NoteEvent, fmClock uint32) error {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(tempoBPM))
	var last int64
	var sounding [6]uint8 // key currently held per channel, 0 = none
	for _, n := range notes {
		delta := uint32(float64(n.Sample-last) * ticksPerSecond / sampleRate)
		ch := uint8(n.Channel)
		if n.On {
			key := midiKey(n.Frequency, n.Octave, fmClock)
			if sounding[ch] != 0 {
				// retrigger without an intervening key-off
				tr.Add(delta, midi.NoteOff(ch, sounding[ch]))
				delta = 0
			}
			tr.Add(delta, midi.NoteOn(ch, key, noteVelocity))
			sounding[ch] = key
		} else {
			if sounding[ch] == 0 {
				continue
			}
			tr.Add(delta, midi.NoteOff(ch, sounding[ch]))
			sounding[ch] = 0
		}
		last = n.Sample
	}
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		return err
	}
	_, err := s.WriteTo(w)
	return err
}

// midiKey converts an F-number and block to the nearest MIDI key. The
// YM2612 output frequency is fnum * clock * 2^(block-1) / (144 * 2^20).
func midiKey(fnum, block int, fmClock uint32) uint8 {
	if fnum <= 0 {
		return 1 // pitch was never programmed; keep the note audible but obvious
	}
	if fmClock == 0 {
		fmClock = defaultFMClock
	}
	hz := float64(fnum) * float64(fmClock) * math.Exp2(float64(block-1)) / (144 * (1 << 20))
	key := int(math.Round(69 + 12*math.Log2(hz/440)))
	return uint8(min(max(key, 1), 127))
}
