package plsbb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLargestErrorIndexPicksArgmax(t *testing.T) {
	envelopes := []*Envelope{
		{X: []float64{0, 2}, Y: []float64{0, 2}},
		{X: []float64{0, 5}, Y: []float64{0, 5}},
	}
	pStar := []float64{10, 3}
	eStar := []float64{1, 1}

	// delta[0] = 9, delta[1] = 2 -> index 0 wins.
	assert.Equal(t, 0, largestErrorIndex(envelopes, pStar, eStar))
}

func TestLargestErrorIndexTieBreaksOnWidth(t *testing.T) {
	envelopes := []*Envelope{
		{X: []float64{0, 1}, Y: []float64{0, 1}},
		{X: []float64{0, 9}, Y: []float64{0, 1}},
	}
	pStar := []float64{5, 5}
	eStar := []float64{2, 2}

	assert.Equal(t, 1, largestErrorIndex(envelopes, pStar, eStar))
}

func TestWidestIntervalIndex(t *testing.T) {
	envelopes := []*Envelope{
		{X: []float64{0, 1}},
		{X: []float64{-3, 4}},
		{X: []float64{0, 2}},
	}
	assert.Equal(t, 1, widestIntervalIndex(envelopes))
}

func TestLocateSegmentClampsToValidRange(t *testing.T) {
	env := &Envelope{X: []float64{0, 1, 2, 3}}

	assert.Equal(t, 1, locateSegment(env, -5)) // below domain clamps to first segment
	assert.Equal(t, 2, locateSegment(env, 1.5))
	assert.Equal(t, 3, locateSegment(env, 100)) // above domain clamps to last segment
}

func TestSelectBranchLargestError(t *testing.T) {
	envelopes := []*Envelope{
		{X: []float64{0, 1, 2}, Y: []float64{0, 1, 2}},
		{X: []float64{0, 4}, Y: []float64{0, 4}},
	}
	relaxedX := []float64{1.5, 2}
	pStar := []float64{10, 1}
	eStar := []float64{0, 0}

	d := selectBranch(BranchLargestError, envelopes, relaxedX, pStar, eStar)
	assert.Equal(t, 0, d.index)
	assert.Equal(t, 1.5, d.split)
	assert.Equal(t, 2, d.pos)
}
