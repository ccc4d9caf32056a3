// Command dblkpad repacks a delta-encoded DAC sample dump (as written by
// fmrip -data-out) into signed 16-bit little-endian PCM. Each pair of input
// bytes folds into one 14-bit value which is then centered and doubled.
package main

import (
	"fmt"
	"math"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "USAGE: dblkpad <datablock file>")
		os.Exit(1)
	}
	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %v: %v\n", os.Args[1], err)
		os.Exit(1)
	}
	out := os.Args[1] + "-pad.bin"
	if err := os.WriteFile(out, repack(data), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "could not write %v: %v\n", out, err)
		os.Exit(1)
	}
}

// repack folds byte pairs into centered 16-bit samples: the second byte of
// each pair contributes the high seven bits.
func repack(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i+1 < len(data); i += 2 {
		x := int(data[i]) | int(data[i+1])<<7
		x -= 0xFFFF / 4
		x *= 2
		// the topmost folded value lands one past int16 range; saturate
		if x > math.MaxInt16 {
			x = math.MaxInt16
		}
		s := uint16(x)
		out = append(out, byte(s), byte(s>>8))
	}
	return out
}
