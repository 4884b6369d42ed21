package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = ParsePriority("")
	assert.ErrorIs(t, err, ErrInvalidPriority)
}

func TestPriority_Rank(t *testing.T) {
	assert.Equal(t, 1, PriorityHigh.Rank())
	assert.Equal(t, 2, PriorityMedium.Rank())
	assert.Equal(t, 3, PriorityLow.Rank())
	assert.Equal(t, 4, Priority("bogus").Rank())

	prev := 0
	for _, p := range Priorities() {
		assert.Greater(t, p.Rank(), prev)
		prev = p.Rank()
	}
}

func TestPriority_RaiseLower(t *testing.T) {
	assert.Equal(t, PriorityMedium, PriorityLow.Raise())
	assert.Equal(t, PriorityHigh, PriorityMedium.Raise())
	assert.Equal(t, PriorityHigh, PriorityHigh.Raise())

	assert.Equal(t, PriorityMedium, PriorityHigh.Lower())
	assert.Equal(t, PriorityLow, PriorityMedium.Lower())
	assert.Equal(t, PriorityLow, PriorityLow.Lower())
}
