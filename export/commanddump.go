package export

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vgmtools/fmrip/vgm"
)

// CommandDump writes a line-per-command listing of the decoded sequence, a
// debugging aid for eyeballing what a recording actually does.
func CommandDump(w io.Writer, commands []vgm.Command) error {
	bw := bufio.NewWriter(w)
	for i, cmd := range commands {
		switch c := cmd.(type) {
		case vgm.Write:
			stereo := ""
			if c.Stereo {
				stereo = " stereo"
			}
			fmt.Fprintf(bw, "%d: write %v port %d reg 0x%02X val 0x%02X%s\n", i, c.Chip, c.Port, c.Register, c.Value, stereo)
		case vgm.Wait:
			fmt.Fprintf(bw, "%d: wait %d\n", i, c.Samples)
		case vgm.DatabankWrite:
			fmt.Fprintf(bw, "%d: databank write, wait %d\n", i, c.Samples)
		case vgm.DatabankSeek:
			fmt.Fprintf(bw, "%d: databank seek 0x%08X\n", i, c.Offset)
		}
	}
	return bw.Flush()
}
