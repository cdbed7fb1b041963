package content_service

// SegmentPlan is the layout of one file: a prefix, FillerRepeats copies of
// FillerUnit, PadderLength bytes of PadderUnit cycled, then the suffix. An
// empty PadderUnit pads with zero bytes.
type SegmentPlan struct {
	Prefix        []byte
	FillerUnit    []byte
	FillerRepeats uint64
	PadderUnit    []byte
	PadderLength  uint64
	Suffix        []byte
}

func (p *SegmentPlan) fillerLength() uint64 {
	return p.FillerRepeats * uint64(len(p.FillerUnit))
}

// Len is the total number of bytes the plan describes.
func (p *SegmentPlan) Len() uint64 {
	return uint64(len(p.Prefix)) + p.fillerLength() + p.PadderLength + uint64(len(p.Suffix))
}

// ByteAt returns the byte at absolute position pos, which must be below Len.
func (p *SegmentPlan) ByteAt(pos uint64) byte {
	var b [1]byte
	p.Fill(b[:], pos)
	return b[0]
}

// Fill copies the plan's bytes starting at offset into dest and returns how
// many were written. It writes fewer than len(dest) bytes only at the end of
// the plan.
func (p *SegmentPlan) Fill(dest []byte, offset uint64) int {
	total := p.Len()
	if offset >= total || len(dest) == 0 {
		return 0
	}
	if remaining := total - offset; uint64(len(dest)) > remaining {
		dest = dest[:remaining]
	}

	prefixEnd := uint64(len(p.Prefix))
	fillerEnd := prefixEnd + p.fillerLength()
	padderEnd := fillerEnd + p.PadderLength

	written := 0
	pos := offset
	for written < len(dest) {
		var n int
		switch {
		case pos < prefixEnd:
			n = copy(dest[written:], p.Prefix[pos:])
		case pos < fillerEnd:
			n = cycle(dest[written:], p.FillerUnit, pos-prefixEnd, fillerEnd-pos)
		case pos < padderEnd:
			n = cycle(dest[written:], p.PadderUnit, pos-fillerEnd, padderEnd-pos)
		default:
			n = copy(dest[written:], p.Suffix[pos-padderEnd:])
		}
		written += n
		pos += uint64(n)
	}
	return written
}

// cycle writes at most limit bytes of unit repeated, starting at index start
// of the repetition. An empty unit writes zeros.
func cycle(dest, unit []byte, start, limit uint64) int {
	if uint64(len(dest)) > limit {
		dest = dest[:limit]
	}
	if len(unit) == 0 {
		clear(dest)
		return len(dest)
	}

	// one period, then keep doubling what is already written
	i := int(start % uint64(len(unit)))
	written := copy(dest, unit[i:])
	written += copy(dest[written:], unit[:i])
	for written < len(dest) {
		written += copy(dest[written:], dest[:written])
	}
	return written
}
