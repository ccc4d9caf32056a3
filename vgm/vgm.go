// Package vgm decodes VGM register-write logs into an ordered command
// sequence plus the embedded data-block payloads. It understands the subset
// of the format produced by Sega MegaDrive/Genesis captures: YM2612 and
// SN76489 (PSG) writes, waits, data blocks and databank commands.
package vgm

import (
	"encoding/binary"
	"fmt"

	"github.com/vgmtools/fmrip"
)

const magic = "Vgm "

// Header field offsets, all little-endian u32.
const (
	offVersion       = 0x08
	offClockPSG      = 0x28
	offClockYM2612   = 0x2C
	offLegacyClockFM = 0x30
	offDataStart     = 0x34
)

// Clock rates above this cannot be a real YM2612; old rippers stored the
// clock one field further down.
const maxPlausibleFMClock = 5000000

type (
	// File is the decoded form of one VGM recording. Commands and data
	// banks are built once by Decode and are read-only afterwards.
	File struct {
		Version     uint32
		ClockYM2612 uint32
		ClockPSG    uint32
		Commands    []Command

		// DataBanks holds one concatenated buffer per declared block type.
		// Genesis recordings only meaningfully use type 0x00 (DAC samples).
		DataBanks map[byte]*DataBank
	}

	// DataBank is the file-order concatenation of all data blocks of one
	// type, with the byte range of each original chunk.
	DataBank struct {
		Data     []byte
		Sections []DataBlockSection
	}

	// DataBlockSection is the half-open byte range of one chunk within its
	// bank's concatenated buffer.
	DataBlockSection struct {
		Start uint32
		End   uint32
	}

	// DecodeError is a fatal decode failure, carrying the absolute byte
	// offset in the input that triggered it.
	DecodeError struct {
		Offset int
		Msg    string
	}
)

func (e *DecodeError) Error() string {
	return fmt.Sprintf("at byte %d: %s", e.Offset, e.Msg)
}

// IsGenesis reports whether the recording came from a MegaDrive/Genesis
// sound subsystem: both the FM and the PSG clock rates must be non-zero.
func (f *File) IsGenesis() bool {
	return f.ClockYM2612 != 0 && f.ClockPSG != 0
}

// Bank returns the data bank of the given block type, or an empty bank if
// the recording has none.
func (f *File) Bank(blockType byte) *DataBank {
	if b, ok := f.DataBanks[blockType]; ok {
		return b
	}
	return &DataBank{}
}

// Section slices one chunk's bytes out of the bank.
func (b *DataBank) Section(s DataBlockSection) []byte {
	return b.Data[s.Start:s.End]
}

// Decode parses a fully buffered, already inflated VGM file. Non-fatal
// oddities are reported through diag (which may be nil); any fatal problem
// aborts the decode with a DecodeError naming the offending byte offset.
func Decode(data []byte, diag *fmrip.Diagnostics) (*File, error) {
	if len(data) < len(magic) || string(data[:len(magic)]) != magic {
		return nil, &DecodeError{Offset: 0, Msg: "invalid ident in header"}
	}

	f := &File{DataBanks: map[byte]*DataBank{}}

	var err error
	if f.Version, err = headerU32(data, offVersion, "version"); err != nil {
		return nil, err
	}
	if f.ClockYM2612, err = headerU32(data, offClockYM2612, "YM2612 clock rate"); err != nil {
		return nil, err
	}
	if f.ClockYM2612 > maxPlausibleFMClock && f.Version <= 0x00000101 {
		if f.ClockYM2612, err = headerU32(data, offLegacyClockFM, "legacy YM2612 clock rate"); err != nil {
			return nil, err
		}
	}
	if f.ClockPSG, err = headerU32(data, offClockPSG, "PSG clock rate"); err != nil {
		return nil, err
	}

	// The command stream starts at 0x34 plus a relative offset: stored in
	// the header from 1.50 on, a fixed 0x0C before that (the classic
	// 0x40-byte header).
	rel := uint32(0x0C)
	if f.Version >= 0x00000150 {
		if rel, err = headerU32(data, offDataStart, "data offset"); err != nil {
			return nil, err
		}
	}
	start := offDataStart + int(rel)

	for i := start; ; {
		if i >= len(data) {
			return nil, &DecodeError{Offset: i, Msg: "unexpected end of stream"}
		}
		op := data[i]
		switch {
		case op == 0x66: // end of stream
			return f, nil
		case op == 0x67:
			n, err := f.readDataBlock(data, i, diag)
			if err != nil {
				return nil, err
			}
			i += n
		case op == 0x68:
			return nil, &DecodeError{Offset: i, Msg: "PCM RAM write (unimplemented)"}
		case op >= 0x90 && op <= 0x95:
			return nil, &DecodeError{Offset: i, Msg: "DAC stream control write (unimplemented)"}
		case op >= 0x80 && op <= 0x8F: // DAC write from databank + wait
			f.Commands = append(f.Commands, DatabankWrite{Samples: uint32(op - 0x80)})
			i++
		case op == 0x52 || op == 0x53: // YM2612 write, port 0/1
			arg, err := payload(data, i, 2)
			if err != nil {
				return nil, err
			}
			f.Commands = append(f.Commands, Write{
				Chip:     ChipYM2612,
				Port:     int(op - 0x52),
				Register: arg[0],
				Value:    arg[1],
			})
			i += 3
		case op == 0x4F: // PSG stereo write
			arg, err := payload(data, i, 1)
			if err != nil {
				return nil, err
			}
			f.Commands = append(f.Commands, Write{Chip: ChipPSG, Port: 0x06, Value: arg[0], Stereo: true})
			i += 2
		case op == 0x50: // PSG write
			arg, err := payload(data, i, 1)
			if err != nil {
				return nil, err
			}
			f.Commands = append(f.Commands, Write{Chip: ChipPSG, Value: arg[0]})
			i += 2
		case op == 0x61: // wait nnnn samples
			arg, err := payload(data, i, 2)
			if err != nil {
				return nil, err
			}
			f.Commands = append(f.Commands, Wait{Samples: uint32(binary.LittleEndian.Uint16(arg))})
			i += 3
		case op == 0x62: // wait 1/60 s
			f.Commands = append(f.Commands, Wait{Samples: 735})
			i++
		case op == 0x63: // wait 1/50 s
			f.Commands = append(f.Commands, Wait{Samples: 882})
			i++
		case op >= 0x70 && op <= 0x7F: // wait n+1 samples
			f.Commands = append(f.Commands, Wait{Samples: uint32(op-0x70) + 1})
			i++
		case op == 0xE0:
			arg, err := payload(data, i, 4)
			if err != nil {
				return nil, err
			}
			f.Commands = append(f.Commands, DatabankSeek{Offset: binary.LittleEndian.Uint32(arg)})
			i += 5
		default:
			return nil, &DecodeError{Offset: i, Msg: fmt.Sprintf("unknown command 0x%02X", op)}
		}
	}
}

// readDataBlock parses a 0x67 block starting at offset i and appends the
// payload to the bank of its declared type. Returns the number of bytes
// consumed including the opcode.
func (f *File) readDataBlock(data []byte, i int, diag *fmrip.Diagnostics) (int, error) {
	head, err := payload(data, i, 6) // reserved byte, type byte, u32 size
	if err != nil {
		return 0, err
	}
	blockType := head[1]
	size := binary.LittleEndian.Uint32(head[2:6])
	body, err := payload(data, i+6, int(size))
	if err != nil {
		return 0, err
	}
	if blockType != 0x00 {
		diag.Warnf("at byte %d: data block of non-0x00 type 0x%02X", i, blockType)
	}
	bank, ok := f.DataBanks[blockType]
	if !ok {
		bank = &DataBank{}
		f.DataBanks[blockType] = bank
	}
	bank.Sections = append(bank.Sections, DataBlockSection{
		Start: uint32(len(bank.Data)),
		End:   uint32(len(bank.Data) + len(body)),
	})
	bank.Data = append(bank.Data, body...)
	return 1 + 6 + int(size), nil
}

func headerU32(data []byte, off int, field string) (uint32, error) {
	if off+4 > len(data) {
		return 0, &DecodeError{Offset: off, Msg: fmt.Sprintf("header truncated reading %s", field)}
	}
	return binary.LittleEndian.Uint32(data[off : off+4]), nil
}

// payload returns the n argument bytes following the opcode at offset i.
func payload(data []byte, i, n int) ([]byte, error) {
	if i+1+n > len(data) {
		return nil, &DecodeError{Offset: i, Msg: "unexpected end of stream"}
	}
	return data[i+1 : i+1+n], nil
}
