package main

import (
	"bytes"
	"compress/gzip"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/vgmtools/fmrip"
	"github.com/vgmtools/fmrip/export"
	"github.com/vgmtools/fmrip/rip"
	"github.com/vgmtools/fmrip/version"
	"github.com/vgmtools/fmrip/vgm"
	"github.com/vgmtools/fmrip/ym2612"
)

func main() {
	instOut := flag.String("inst-out", "", "File to write the FM instrument catalog to.")
	jsonOut := flag.Bool("j", false, "Write the instrument catalog as JSON instead of YAML.")
	dataOut := flag.String("data-out", "", "Directory to write data block payloads to (usually DAC samples).")
	wavOut := flag.Bool("wav", false, "Wrap data block payloads in WAV containers instead of raw .bin files.")
	wavRate := flag.Int("wav-rate", 22050, "Sample rate stamped on exported WAV files.")
	midiOut := flag.String("midi-out", "", "File to write note events to as a standard MIDI file.")
	dumpCommands := flag.Bool("dump-commands", false, "Write the decoded command listing to <input>-commands.txt (debug).")
	strict := flag.Bool("strict", false, "Fail on unknown chip registers instead of ignoring them.")
	quiet := flag.Bool("q", false, "Do not print decode warnings.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	if *instOut == "" && *dataOut == "" && *midiOut == "" && !*dumpCommands {
		fmt.Fprintln(os.Stderr, "nothing to do: select at least one output")
		os.Exit(1)
	}
	filename := flag.Arg(0)

	data, err := readMaybeGzipped(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not read %v: %v\n", filename, err)
		os.Exit(1)
	}

	var diag fmrip.Diagnostics
	file, err := vgm.Decode(data, &diag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error parsing VGM file: %v\n", err)
		os.Exit(1)
	}
	if !file.IsGenesis() {
		fmt.Fprintln(os.Stderr, "not a MegaDrive/Genesis recording: needs both YM2612 and PSG clock rates")
		os.Exit(1)
	}
	fmt.Printf("Read %d commands from %v\n", len(file.Commands), filename)

	retval := 0
	if *dumpCommands {
		if err := writeFileWith(filename+"-commands.txt", func(w io.Writer) error {
			return export.CommandDump(w, file.Commands)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "could not dump commands: %v\n", err)
			retval = 1
		}
	}

	if *dataOut != "" {
		bank := file.Bank(0x00)
		if len(bank.Sections) == 0 {
			fmt.Println("file contains no dumpable data blocks")
		} else {
			fmt.Printf("Found %d dumpable data blocks\n", len(bank.Sections))
			if err := export.DataBlocks(*dataOut, bank, *wavOut, *wavRate); err != nil {
				fmt.Fprintf(os.Stderr, "could not save data blocks: %v\n", err)
				retval = 1
			} else {
				fmt.Printf("Saved data blocks to %v\n", *dataOut)
			}
		}
	}

	if *instOut != "" || *midiOut != "" {
		result, err := rip.Extract(file, ym2612.Config{Strict: *strict}, &diag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chip error: %v\n", err)
			os.Exit(1)
		}
		if *instOut != "" {
			format := export.FormatYAML
			if *jsonOut {
				format = export.FormatJSON
			}
			if err := writeFileWith(*instOut, func(w io.Writer) error {
				return export.Instruments(w, result.Catalog, format)
			}); err != nil {
				fmt.Fprintf(os.Stderr, "could not save instruments: %v\n", err)
				retval = 1
			} else {
				fmt.Printf("Saved %d instruments (%d key-ons) to %v\n",
					len(result.Catalog), result.Catalog.TotalUsages(), *instOut)
			}
		}
		if *midiOut != "" {
			if err := writeFileWith(*midiOut, func(w io.Writer) error {
				return export.Notes(w, result.Notes, file.ClockYM2612)
			}); err != nil {
				fmt.Fprintf(os.Stderr, "could not save MIDI file: %v\n", err)
				retval = 1
			} else {
				fmt.Printf("Saved note events to %v\n", *midiOut)
			}
		}
	}

	if !*quiet {
		for _, warning := range diag.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %v\n", warning)
		}
	}
	os.Exit(retval)
}

// readMaybeGzipped loads the file, inflating it transparently when it
// carries the gzip magic (the .vgz convention).
func readMaybeGzipped(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if len(data) < 2 || data[0] != 0x1F || data[1] != 0x8B {
		return data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not open gzip stream: %v", err)
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func writeFileWith(name string, write func(io.Writer) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "MegaDrive/Genesis FM instrument ripper. Input a .vgm or .vgz recording, outputs instrument, sample and note data.\nUsage: %s [flags] file\n", os.Args[0])
	flag.PrintDefaults()
}
