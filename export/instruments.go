// Package export shapes extraction results into their on-disk artifact
// forms: instrument catalogs as YAML or JSON, data-block payloads as raw
// binaries or WAV files, and note events as standard MIDI files.
package export

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vgmtools/fmrip"
)

// Format selects the instrument catalog encoding.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
)

type (
	instrumentList struct {
		Instruments []instrumentRecord `yaml:"instruments" json:"instruments"`
	}

	instrumentRecord struct {
		Operators    [4]operatorRecord `yaml:"operators" json:"operators"`
		Algorithm    int               `yaml:"algorithm" json:"algorithm"`
		Feedback     int               `yaml:"feedback" json:"feedback"`
		Pan          panRecord         `yaml:"pan" json:"pan"`
		AMS          int               `yaml:"ams" json:"ams"`
		FMS          int               `yaml:"fms" json:"fms"`
		LFOFrequency *int              `yaml:"lfoFrequency" json:"lfoFrequency"`
		Usages       []usageRecord     `yaml:"usages" json:"usages"`
	}

	operatorRecord struct {
		Detune       int            `yaml:"detune" json:"detune"`
		Multiplier   float64        `yaml:"multiplier" json:"multiplier"`
		TotalLevel   int            `yaml:"totalLevel" json:"totalLevel"`
		KeyScaling   int            `yaml:"keyScaling" json:"keyScaling"`
		AmplitudeMod bool           `yaml:"amplitudeMod" json:"amplitudeMod"`
		SSGEG        int            `yaml:"ssgEg" json:"ssgEg"`
		Envelope     envelopeRecord `yaml:"envelope" json:"envelope"`
		Special      pitchRecord    `yaml:"specialMode" json:"specialMode"`
	}

	envelopeRecord struct {
		Attack       int `yaml:"attack" json:"attack"`
		Decay        int `yaml:"decay" json:"decay"`
		SustainRate  int `yaml:"sustainRate" json:"sustainRate"`
		SustainLevel int `yaml:"sustainLevel" json:"sustainLevel"`
		Release      int `yaml:"release" json:"release"`
	}

	pitchRecord struct {
		Frequency int `yaml:"frequency" json:"frequency"`
		Octave    int `yaml:"octave" json:"octave"`
	}

	panRecord struct {
		Left  bool `yaml:"left" json:"left"`
		Right bool `yaml:"right" json:"right"`
	}

	usageRecord struct {
		AtCommand int      `yaml:"atCommand" json:"atCommand"`
		AtSample  int64    `yaml:"atSample" json:"atSample"`
		KeyOps    *[4]bool `yaml:"keyOnOperators" json:"keyOnOperators"`
	}
)

// Instruments writes the catalog to w in the chosen format.
func Instruments(w io.Writer, catalog fmrip.Catalog, format Format) error {
	list := instrumentList{Instruments: make([]instrumentRecord, len(catalog))}
	for i := range catalog {
		list.Instruments[i] = newInstrumentRecord(&catalog[i])
	}
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(&list)
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(&list); err != nil {
		return err
	}
	return enc.Close()
}

func newInstrumentRecord(inst *fmrip.Instrument) instrumentRecord {
	rec := instrumentRecord{
		Algorithm: inst.Algorithm,
		Feedback:  inst.Feedback,
		// pan bit 1 routes the channel left, bit 0 right
		Pan:          panRecord{Left: inst.Pan&0x02 != 0, Right: inst.Pan&0x01 != 0},
		AMS:          inst.AMS,
		FMS:          inst.FMS,
		LFOFrequency: inst.LFOFrequency,
		Usages:       make([]usageRecord, len(inst.Usages)),
	}
	for i, op := range inst.Operators {
		rec.Operators[i] = operatorRecord{
			Detune:       op.Detune,
			Multiplier:   multiplier(op.Multiplier),
			TotalLevel:   op.TotalLevel,
			KeyScaling:   op.KeyScaling,
			AmplitudeMod: op.AmplitudeMod,
			SSGEG:        op.SSGEG,
			Envelope: envelopeRecord{
				Attack:       op.AttackRate,
				Decay:        op.DecayRate,
				SustainRate:  op.SustainRate,
				SustainLevel: op.SustainLevel & 0x0F,
				Release:      op.ReleaseRate & 0x0F,
			},
			Special: pitchRecord{Frequency: op.SpecialFrequency, Octave: op.SpecialOctave},
		}
	}
	for i, u := range inst.Usages {
		rec.Usages[i] = usageRecord{AtCommand: u.Command, AtSample: u.Sample, KeyOps: u.KeyOps}
	}
	return rec
}

// multiplier reports the frequency multiplier an operator actually applies:
// the register value 0 means x0.5 on the hardware.
func multiplier(raw int) float64 {
	if raw == 0 {
		return 0.5
	}
	return float64(raw)
}
