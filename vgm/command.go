package vgm

// Chip identifies which sound chip a register write targets.
type Chip int

const (
	ChipYM2612 Chip = iota
	ChipPSG
)

func (c Chip) String() string {
	switch c {
	case ChipYM2612:
		return "YM2612"
	case ChipPSG:
		return "PSG"
	}
	return "unknown"
}

type (
	// Command is one decoded VGM command. The set of implementations is
	// closed: Write, Wait, DatabankWrite and DatabankSeek. Consumers should
	// type switch over all four. Commands are produced once by Decode and
	// never mutated; their order in File.Commands is the only temporal
	// reference the rest of the pipeline has.
	Command interface {
		command()
	}

	// Write is a register write to one of the two sound chips.
	Write struct {
		Chip     Chip
		Port     int
		Register byte
		Value    byte

		// Stereo marks the PSG stereo write variant (opcode 0x4F).
		Stereo bool
	}

	// Wait advances time by the given number of 44100 Hz samples.
	Wait struct {
		Samples uint32
	}

	// DatabankWrite is the opcode-encoded wait (0x80-0x8F) tied to an
	// implicit DAC write from the databank. The implied register write is
	// not materialized; the command only contributes its wait time.
	DatabankWrite struct {
		Samples uint32
	}

	// DatabankSeek (0xE0) repositions the databank read pointer. It carries
	// no register write and does not affect chip state.
	DatabankSeek struct {
		Offset uint32
	}
)

func (Write) command()         {}
func (Wait) command()          {}
func (DatabankWrite) command() {}
func (DatabankSeek) command()  {}
