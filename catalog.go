package fmrip

// Catalog is the ordered list of distinct instruments found in a recording,
// in first-seen order. It only ever grows.
type Catalog []Instrument

// Add merges a freshly captured snapshot into the catalog. If a structurally
// equal instrument is already present, the usage is appended to it and its
// index is returned; otherwise the snapshot becomes a new entry with the
// usage as its first record. The scan is linear, as catalogs stay small.
func (c *Catalog) Add(inst Instrument, usage Usage) (index int, added bool) {
	for i := range *c {
		if (*c)[i].Equal(&inst) {
			(*c)[i].Usages = append((*c)[i].Usages, usage.Copy())
			return i, false
		}
	}
	entry := inst.Copy()
	entry.Usages = []Usage{usage.Copy()}
	*c = append(*c, entry)
	return len(*c) - 1, true
}

// TotalUsages returns the number of key-ons recorded across all instruments.
func (c Catalog) TotalUsages() int {
	ret := 0
	for _, inst := range c {
		ret += len(inst.Usages)
	}
	return ret
}
