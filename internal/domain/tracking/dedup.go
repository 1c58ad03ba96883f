package tracking

// BatchEntry is one entry of an in-batch duplicate check result.
type BatchEntry struct {
	Index      int    // position in the submitted batch
	Raw        string // value as submitted
	Normalized string
	Duplicate  bool // true for every occurrence after the first
}

// MarkDuplicates flags in-batch duplicates over an ordered list of tracking
// numbers. Keys are compared after normalization; the first occurrence of a
// key is never flagged. The check is advisory and purely in-memory: it does
// not consult the record store, whose own uniqueness check produces the
// DuplicateScan conflict.
func MarkDuplicates(trackingNumbers []string) []BatchEntry {
	entries := make([]BatchEntry, len(trackingNumbers))
	seen := make(map[string]struct{}, len(trackingNumbers))
	for i, raw := range trackingNumbers {
		normalized := NormalizeTrackingNumber(raw)
		_, dup := seen[normalized]
		if !dup {
			seen[normalized] = struct{}{}
		}
		entries[i] = BatchEntry{
			Index:      i,
			Raw:        raw,
			Normalized: normalized,
			Duplicate:  dup,
		}
	}
	return entries
}
