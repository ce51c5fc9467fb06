package controller

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotDropsOutOfOrderResults(t *testing.T) {
	var s Snapshot[int]
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := s.begin()
	second := s.begin()
	assert.True(t, s.apply(second, []int{2}, nil, now))
	assert.False(t, s.apply(first, []int{1}, nil, now))
	assert.Equal(t, []int{2}, s.Items)
	assert.Equal(t, Loaded, s.Status)
	assert.Equal(t, now, s.LoadedAt)
}

func TestSnapshotStatusTransitions(t *testing.T) {
	var s Snapshot[string]
	boom := errors.New("boom")

	s.apply(s.begin(), nil, boom, time.Now())
	assert.Equal(t, Unloaded, s.Status)
	assert.Equal(t, boom, s.Err)

	s.apply(s.begin(), []string{"a"}, nil, time.Now())
	assert.Equal(t, Loaded, s.Status)
	assert.NoError(t, s.Err)

	s.apply(s.begin(), nil, boom, time.Now())
	assert.Equal(t, Stale, s.Status)
	assert.Equal(t, []string{"a"}, s.Items)

	s.reset()
	assert.Equal(t, Unloaded, s.Status)
	assert.Nil(t, s.Items)
}

func TestSnapshotMarkStaleOnlyAffectsLoaded(t *testing.T) {
	var s Snapshot[int]
	s.markStale()
	assert.Equal(t, Unloaded, s.Status)

	s.apply(s.begin(), []int{1}, nil, time.Now())
	s.markStale()
	assert.Equal(t, Stale, s.Status)
	assert.Equal(t, "stale", s.Status.String())
}
