package schema

// FileHeader is the common 24-byte header shared by the tops, fills and
// book-events input files (spec §6: book_tops_file_hdr / book_fills_file_hdr
// / book_events_file_hdr all share this shape).
type FileHeader struct {
	FeedID     uint64
	DateInt    uint32
	RecordCount uint32
	SymbolIdx  uint64
}
