package content_service

// ContentService turns file descriptors into bytes. Implementations never
// materialize a whole file; reads are clamped to the descriptor's size.
type ContentService interface {
	// Plan lays out the four segments of desc.
	Plan(desc *FileDescriptor) *SegmentPlan

	// Read returns up to length bytes starting at offset.
	Read(desc *FileDescriptor, offset uint64, length int) []byte

	// ReadInto fills dest starting at offset and returns the bytes written.
	ReadInto(desc *FileDescriptor, dest []byte, offset uint64) int
}

// SizeInsufficientWarning is the message logged when a file is too small for
// its patterns. It is never returned as an error.
const SizeInsufficientWarning = "size insufficient for patterns"
