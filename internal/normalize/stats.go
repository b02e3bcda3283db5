package normalize

// Stats counts what a Normalizer has seen so far.
type Stats struct {
	// Instructions is the number of load instructions finalized.
	Instructions uint64 `json:"instructions"`
	// Merged counts instructions built from more than one fragment.
	Merged uint64 `json:"merged"`
	// Fragments is the total number of quoted fragments consumed.
	Fragments uint64 `json:"fragments"`
	// CommentsRelocated counts comments moved behind a merged literal.
	CommentsRelocated uint64 `json:"comments_relocated"`
	BytesIn           uint64 `json:"bytes_in"`
	BytesOut          uint64 `json:"bytes_out"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Instructions += other.Instructions
	s.Merged += other.Merged
	s.Fragments += other.Fragments
	s.CommentsRelocated += other.CommentsRelocated
	s.BytesIn += other.BytesIn
	s.BytesOut += other.BytesOut
}
