package winnow

// Snapshot is the serializable form of a Fingerprint.
type Snapshot struct {
	Hashes  []uint64 `json:"hashes"`
	Entries []Entry  `json:"entries,omitempty"`
	KGrams  int      `json:"kgrams"`
}

// Snapshot returns f in serializable form.
func (f *Fingerprint) Snapshot() Snapshot {
	return Snapshot{
		Hashes:  f.Hashes(),
		Entries: f.entries,
		KGrams:  f.kgrams,
	}
}

// FromSnapshot rebuilds a Fingerprint. Duplicate hashes collapse.
func FromSnapshot(s Snapshot) *Fingerprint {
	fp := &Fingerprint{
		hashes:  make(map[uint64]struct{}, len(s.Hashes)),
		entries: s.Entries,
		kgrams:  s.KGrams,
	}
	for _, h := range s.Hashes {
		fp.hashes[h] = struct{}{}
	}
	return fp
}
