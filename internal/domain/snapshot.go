package domain

import "fmt"

// Snapshot is the import/export framing for a full canvas: every item as a
// record. The engine guarantees that after a successful import the spatial
// index and item store are fully consistent and one revision bump has fired.
type Snapshot struct {
	Version int      `json:"version"`
	Items   []Record `json:"items"`
}

const SnapshotVersion = 1

// SnapshotError describes why an imported snapshot was rejected. Validation
// runs to completion before any state is touched, so a SnapshotError always
// means nothing was mutated.
type SnapshotError struct {
	Reason string
}

func (e *SnapshotError) Error() string {
	return "invalid snapshot: " + e.Reason
}

// Validate checks the snapshot's shape: known version, unique non-empty IDs,
// well-formed boxes, and decodable payloads for every record.
func (s Snapshot) Validate() error {
	if s.Version != SnapshotVersion {
		return &SnapshotError{Reason: fmt.Sprintf("unsupported version %d", s.Version)}
	}
	seen := make(map[string]bool, len(s.Items))
	for i, rec := range s.Items {
		if rec.ID == "" {
			return &SnapshotError{Reason: fmt.Sprintf("item %d has empty id", i)}
		}
		if seen[rec.ID] {
			return &SnapshotError{Reason: fmt.Sprintf("duplicate id %q", rec.ID)}
		}
		seen[rec.ID] = true
		if rec.Box.Width < 0 || rec.Box.Height < 0 {
			return &SnapshotError{Reason: fmt.Sprintf("item %q has negative box dimensions", rec.ID)}
		}
		if _, err := DecodeItem(rec); err != nil {
			return &SnapshotError{Reason: err.Error()}
		}
	}
	return nil
}
