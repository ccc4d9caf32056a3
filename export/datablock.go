package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/vgmtools/fmrip/vgm"
)

// DataBlocks writes one file per recorded data-block section into dir,
// creating it if needed. Raw mode reproduces each chunk byte for byte as
// DATABLK<n>.bin; WAV mode wraps the 8-bit unsigned DAC samples in a mono
// WAV container stamped with sampleRate.
func DataBlocks(dir string, bank *vgm.DataBank, asWAV bool, sampleRate int) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("could not create output directory %v: %v", dir, err)
	}
	for i, section := range bank.Sections {
		chunk := bank.Section(section)
		if !asWAV {
			name := filepath.Join(dir, fmt.Sprintf("DATABLK%d.bin", i))
			if err := os.WriteFile(name, chunk, 0644); err != nil {
				return fmt.Errorf("could not write data block %d: %v", i, err)
			}
			continue
		}
		name := filepath.Join(dir, fmt.Sprintf("DATABLK%d.wav", i))
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("could not create data block %d: %v", i, err)
		}
		err = DataBlockWAV(f, chunk, sampleRate)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("could not write data block %d: %v", i, err)
		}
	}
	return nil
}

// DataBlockWAV wraps one chunk of 8-bit unsigned DAC samples in a mono WAV
// container.
func DataBlockWAV(w io.WriteSeeker, pcm []byte, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 8, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, len(pcm)),
		SourceBitDepth: 8,
	}
	for i, b := range pcm {
		buf.Data[i] = int(b)
	}
	if err := enc.Write(buf); err != nil {
		return err
	}
	return enc.Close()
}
