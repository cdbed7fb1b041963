// Package cached keeps one segment plan per descriptor so that files whose
// patterns have random parts read the same way for as long as the plan stays
// cached.
package cached

import (
	"fmt"

	cs "github.com/AnishMulay/sizefs/internal/content_service"
	lru "github.com/hashicorp/golang-lru/v2"
)

type CachedContentService struct {
	planner cs.ContentService
	plans   *lru.Cache[*cs.FileDescriptor, *cs.SegmentPlan]
}

// NewCachedContentService caches up to size plans produced by planner.
// Descriptors are keyed by identity.
func NewCachedContentService(planner cs.ContentService, size int) (*CachedContentService, error) {
	plans, err := lru.New[*cs.FileDescriptor, *cs.SegmentPlan](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}
	return &CachedContentService{planner: planner, plans: plans}, nil
}

func (c *CachedContentService) Plan(desc *cs.FileDescriptor) *cs.SegmentPlan {
	if plan, ok := c.plans.Get(desc); ok {
		return plan
	}

	plan := c.planner.Plan(desc)
	// another reader may have planned the same descriptor meanwhile
	if prev, ok, _ := c.plans.PeekOrAdd(desc, plan); ok {
		return prev
	}
	return plan
}

func (c *CachedContentService) Read(desc *cs.FileDescriptor, offset uint64, length int) []byte {
	if length <= 0 || offset >= desc.Size {
		return []byte{}
	}
	n := uint64(length)
	if remaining := desc.Size - offset; n > remaining {
		n = remaining
	}

	out := make([]byte, n)
	c.Plan(desc).Fill(out, offset)
	return out
}

func (c *CachedContentService) ReadInto(desc *cs.FileDescriptor, dest []byte, offset uint64) int {
	if offset >= desc.Size || len(dest) == 0 {
		return 0
	}
	return c.Plan(desc).Fill(dest, offset)
}

// Forget drops the cached plan of desc, if any.
func (c *CachedContentService) Forget(desc *cs.FileDescriptor) {
	c.plans.Remove(desc)
}

func (c *CachedContentService) Len() int {
	return c.plans.Len()
}

var _ cs.ContentService = (*CachedContentService)(nil)
