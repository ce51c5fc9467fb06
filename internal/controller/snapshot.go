package controller

import "time"

// SnapshotStatus separates "never loaded" from "showing last known data".
type SnapshotStatus int

const (
	// Unloaded: no list call has succeeded this session. Items is empty.
	Unloaded SnapshotStatus = iota
	// Loaded: Items is the result of the most recent successful list call.
	Loaded
	// Stale: Items is kept from an earlier load but a later load failed or a
	// write to the collection has not been followed by a successful reload.
	Stale
)

func (s SnapshotStatus) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Stale:
		return "stale"
	default:
		return "unloaded"
	}
}

// Snapshot is the client's cached copy of one collection.
type Snapshot[T any] struct {
	Items    []T
	Status   SnapshotStatus
	LoadedAt time.Time
	// Err is the most recent load failure, cleared by the next success.
	Err error

	issued  uint64
	applied uint64
}

// begin reserves a sequence number for a list call about to be issued.
func (s *Snapshot[T]) begin() uint64 {
	s.issued++
	return s.issued
}

// apply records the outcome of list call seq. Results older than one already
// applied are dropped so a slow response cannot overwrite newer data.
func (s *Snapshot[T]) apply(seq uint64, items []T, err error, now time.Time) bool {
	if seq < s.applied {
		return false
	}
	s.applied = seq
	if err != nil {
		s.Err = err
		if s.Status == Loaded {
			s.Status = Stale
		}
		return true
	}
	s.Items = items
	s.Status = Loaded
	s.LoadedAt = now
	s.Err = nil
	return true
}

func (s *Snapshot[T]) markStale() {
	if s.Status == Loaded {
		s.Status = Stale
	}
}

func (s *Snapshot[T]) reset() {
	*s = Snapshot[T]{}
}

func (s Snapshot[T]) clone() Snapshot[T] {
	out := s
	if s.Items != nil {
		out.Items = make([]T, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}
