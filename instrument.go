package fmrip

type (
	// Operator is one of the four modulator/carrier units of an FM channel.
	// The first eleven fields are the synthesis parameters that define an
	// instrument; SpecialFrequency and SpecialOctave carry the per-operator
	// pitch of the channel-3 special mode and do not take part in instrument
	// identity.
	Operator struct {
		Detune       int
		Multiplier   int
		TotalLevel   int
		KeyScaling   int
		AttackRate   int
		DecayRate    int
		SustainRate  int
		SustainLevel int
		ReleaseRate  int
		SSGEG        int
		AmplitudeMod bool

		SpecialFrequency int `yaml:",omitempty"`
		SpecialOctave    int `yaml:",omitempty"`
	}

	// Instrument is a snapshot of one channel's synthesis parameters, taken
	// at a key-on edge. It owns its operators outright; nothing in it aliases
	// the live chip state it was copied from.
	Instrument struct {
		Operators    [4]Operator
		Algorithm    int
		Feedback     int
		Pan          int
		AMS          int
		FMS          int
		LFOFrequency *int // nil = LFO disabled

		// Usages lists every key-on that triggered this instrument, in
		// command order.
		Usages []Usage
	}

	// Usage records one key-on of an instrument: the index of the command
	// that triggered it, the elapsed sample time at that point, and - when
	// the trigger was a key on/off register write - which of the four
	// operators were keyed.
	Usage struct {
		Command int
		Sample  int64
		KeyOps  *[4]bool
	}
)

// Copy makes a deep copy of an Instrument.
func (inst *Instrument) Copy() Instrument {
	c := *inst
	if inst.LFOFrequency != nil {
		freq := *inst.LFOFrequency
		c.LFOFrequency = &freq
	}
	c.Usages = make([]Usage, len(inst.Usages))
	for i, u := range inst.Usages {
		c.Usages[i] = u.Copy()
	}
	return c
}

// Copy makes a deep copy of a Usage.
func (u *Usage) Copy() Usage {
	c := *u
	if u.KeyOps != nil {
		ops := *u.KeyOps
		c.KeyOps = &ops
	}
	return c
}

// Equal reports whether two instruments are structurally the same patch:
// all eleven synthesis parameters of all four operators match pairwise, and
// algorithm, feedback, pan, AMS, FMS and LFO frequency match. Usage
// histories and the special-mode pitches are not compared. The comparison
// is exact; there is no tolerance.
func (inst *Instrument) Equal(other *Instrument) bool {
	for i := range inst.Operators {
		if !inst.Operators[i].equalParams(&other.Operators[i]) {
			return false
		}
	}
	if inst.Algorithm != other.Algorithm ||
		inst.Feedback != other.Feedback ||
		inst.Pan != other.Pan ||
		inst.AMS != other.AMS ||
		inst.FMS != other.FMS {
		return false
	}
	if (inst.LFOFrequency == nil) != (other.LFOFrequency == nil) {
		return false
	}
	return inst.LFOFrequency == nil || *inst.LFOFrequency == *other.LFOFrequency
}

func (op *Operator) equalParams(other *Operator) bool {
	return op.Detune == other.Detune &&
		op.Multiplier == other.Multiplier &&
		op.TotalLevel == other.TotalLevel &&
		op.KeyScaling == other.KeyScaling &&
		op.AttackRate == other.AttackRate &&
		op.DecayRate == other.DecayRate &&
		op.SustainRate == other.SustainRate &&
		op.SustainLevel == other.SustainLevel &&
		op.ReleaseRate == other.ReleaseRate &&
		op.SSGEG == other.SSGEG &&
		op.AmplitudeMod == other.AmplitudeMod
}
