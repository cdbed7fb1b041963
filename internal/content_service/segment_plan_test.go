package content_service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlan() (*SegmentPlan, string) {
	plan := &SegmentPlan{
		Prefix:        []byte("AB"),
		FillerUnit:    []byte("xyz"),
		FillerRepeats: 3,
		PadderUnit:    []byte("pq"),
		PadderLength:  3,
		Suffix:        []byte("ZZ"),
	}
	return plan, "ABxyzxyzxyzpqpZZ"
}

func TestSegmentPlan_Len(t *testing.T) {
	plan, want := testPlan()
	assert.Equal(t, uint64(len(want)), plan.Len())
	assert.Equal(t, uint64(0), (&SegmentPlan{}).Len())
}

func TestSegmentPlan_FillEveryRange(t *testing.T) {
	plan, want := testPlan()

	for offset := 0; offset <= len(want)+2; offset++ {
		for length := 0; length <= len(want)+2; length++ {
			dest := make([]byte, length)
			n := plan.Fill(dest, uint64(offset))

			expected := ""
			if offset < len(want) {
				end := min(offset+length, len(want))
				expected = want[offset:end]
			}
			require.Equal(t, len(expected), n, "offset %d length %d", offset, length)
			require.Equal(t, expected, string(dest[:n]), "offset %d length %d", offset, length)
		}
	}
}

func TestSegmentPlan_ZeroPadder(t *testing.T) {
	plan := &SegmentPlan{
		FillerUnit:    []byte("ab"),
		FillerRepeats: 1,
		PadderLength:  3,
		Suffix:        []byte("!"),
	}
	dest := make([]byte, 8)
	for i := range dest {
		dest[i] = 0xff
	}
	n := plan.Fill(dest, 0)
	assert.Equal(t, 6, n)
	assert.Equal(t, []byte{'a', 'b', 0, 0, 0, '!'}, dest[:n])
}

func TestSegmentPlan_ByteAt(t *testing.T) {
	plan, want := testPlan()
	for i := 0; i < len(want); i++ {
		assert.Equal(t, want[i], plan.ByteAt(uint64(i)), "position %d", i)
	}
}

func TestSegmentPlan_HugeOffsets(t *testing.T) {
	const size = uint64(10) << 60
	plan := &SegmentPlan{
		FillerUnit:    []byte("0123456789"),
		FillerRepeats: size / 10,
	}
	require.Equal(t, size, plan.Len())

	dest := make([]byte, 10)
	n := plan.Fill(dest, size-3)
	assert.Equal(t, "789", string(dest[:n]))

	n = plan.Fill(dest, 1<<40+5)
	assert.Equal(t, 10, n)
	// 2^40 mod 10 == 6
	assert.Equal(t, "1234567890", string(dest))
}

func TestCycle(t *testing.T) {
	dest := make([]byte, 7)
	n := cycle(dest, []byte("abc"), 4, 100)
	assert.Equal(t, 7, n)
	assert.Equal(t, "bcabcab", string(dest))

	n = cycle(dest, []byte("abc"), 0, 2)
	assert.Equal(t, 2, n)
	assert.Equal(t, "ab", string(dest[:n]))

	n = cycle(dest[:1], []byte("abcdef"), 5, 10)
	assert.Equal(t, "f", string(dest[:n]))
}
