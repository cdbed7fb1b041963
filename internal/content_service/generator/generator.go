// Package generator builds segment plans from file descriptors and serves
// reads from them. Every call draws a fresh plan, so patterns with random
// parts may read differently from one call to the next.
package generator

import (
	"fmt"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	"github.com/AnishMulay/sizefs/internal/log_service"
	"github.com/AnishMulay/sizefs/internal/pattern"
)

type Generator struct {
	ls  log_service.LogService
	rng pattern.Rand
}

// NewGenerator returns a generator that reports size warnings to ls. A nil
// rng selects pattern.DefaultRand; any other source is serialized.
func NewGenerator(ls log_service.LogService, rng pattern.Rand) *Generator {
	if ls == nil {
		ls = log_service.Nop{}
	}
	return &Generator{ls: ls, rng: pattern.Locked(rng)}
}

func (g *Generator) Plan(desc *cs.FileDescriptor) *cs.SegmentPlan {
	return Plan(*desc, g.rng, g.ls)
}

func (g *Generator) Read(desc *cs.FileDescriptor, offset uint64, length int) []byte {
	return Read(*desc, offset, length, g.rng, g.ls)
}

func (g *Generator) ReadInto(desc *cs.FileDescriptor, dest []byte, offset uint64) int {
	if offset >= desc.Size || len(dest) == 0 {
		return 0
	}
	return Plan(*desc, g.rng, g.ls).Fill(dest, offset)
}

// Plan resolves the patterns of desc and lays them out so the segments add up
// to exactly desc.Size. A warning is sent to ls when the size cannot hold the
// prefix and suffix, or when a needed padder resolves to nothing.
func Plan(desc cs.FileDescriptor, rng pattern.Rand, ls log_service.LogService) *cs.SegmentPlan {
	ps := desc.Patterns
	size := desc.Size

	prefix := pattern.Resolve(ps.Prefix, ps.MaxRandom, rng)
	suffix := pattern.Resolve(ps.Suffix, ps.MaxRandom, rng)

	edges := uint64(len(prefix)) + uint64(len(suffix))
	if edges > size {
		warn(ls, desc, "prefix and suffix exceed size", map[string]any{
			"prefix_len": len(prefix),
			"suffix_len": len(suffix),
		})
		plan := &cs.SegmentPlan{Prefix: prefix, Suffix: suffix}
		truncateEdges(plan, edges-size)
		return checked(plan, size)
	}

	plan := &cs.SegmentPlan{Prefix: prefix, Suffix: suffix}
	middle := size - edges

	remainder := middle
	if unit := pattern.Resolve(ps.Filler, ps.MaxRandom, rng); len(unit) > 0 {
		plan.FillerUnit = unit
		plan.FillerRepeats = middle / uint64(len(unit))
		remainder = middle % uint64(len(unit))
	}

	if remainder > 0 {
		padder := pattern.Resolve(ps.Padder, ps.MaxRandom, rng)
		if len(padder) == 0 {
			warn(ls, desc, "padder is empty, padding with zero bytes", map[string]any{
				"remainder": remainder,
			})
		} else if uint64(len(padder)) > remainder {
			padder = padder[:remainder]
		}
		plan.PadderUnit = padder
		plan.PadderLength = remainder
	}

	return checked(plan, size)
}

// truncateEdges drops excess bytes, first from the head of the suffix, then
// from the tail of the prefix.
func truncateEdges(plan *cs.SegmentPlan, excess uint64) {
	cut := min(excess, uint64(len(plan.Suffix)))
	plan.Suffix = plan.Suffix[cut:]
	excess -= cut

	plan.Prefix = plan.Prefix[:uint64(len(plan.Prefix))-excess]
}

func checked(plan *cs.SegmentPlan, size uint64) *cs.SegmentPlan {
	if got := plan.Len(); got != size {
		panic(fmt.Sprintf("generator: segment plan covers %d bytes, want %d", got, size))
	}
	return plan
}

func warn(ls log_service.LogService, desc cs.FileDescriptor, reason string, meta map[string]any) {
	if ls == nil {
		return
	}
	meta["size"] = desc.Size
	meta["reason"] = reason
	ls.Warn(log_service.LogEvent{
		Message:  cs.SizeInsufficientWarning,
		Metadata: meta,
	})
}

// Read returns max(0, min(length, size-offset)) bytes of the file starting at
// offset, building a fresh plan for the call.
func Read(desc cs.FileDescriptor, offset uint64, length int, rng pattern.Rand, ls log_service.LogService) []byte {
	if length <= 0 || offset >= desc.Size {
		return []byte{}
	}
	n := uint64(length)
	if remaining := desc.Size - offset; n > remaining {
		n = remaining
	}

	out := make([]byte, n)
	Plan(desc, rng, ls).Fill(out, offset)
	return out
}

var _ cs.ContentService = (*Generator)(nil)
