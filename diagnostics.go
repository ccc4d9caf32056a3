package fmrip

import "fmt"

// Diagnostics collects the non-fatal warnings of a decode run. Passing a nil
// *Diagnostics discards them; collecting and printing them is the caller's
// choice. Warnings never change decode results, they only describe
// oddities in the input.
type Diagnostics struct {
	Warnings []string
}

// Warnf records one warning. Safe to call on a nil receiver.
func (d *Diagnostics) Warnf(format string, args ...any) {
	if d == nil {
		return
	}
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}
