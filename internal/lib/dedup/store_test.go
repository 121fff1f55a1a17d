package dedup

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyString(t *testing.T) {
	assert.Equal(t, "7:0:42", ProximityKey(7, 42).String())
	assert.Equal(t, "7:3:42", RecalculationKey(7, 3, 42).String())
}

func TestKeyShapesAreDistinct(t *testing.T) {
	s := NewMemoryStore()

	// A proximity alert for (user, incident) must not suppress a
	// recalculation alert for (user, itinerary, incident).
	assert.True(t, s.CheckAndMark(ProximityKey(1, 10)))
	assert.True(t, s.CheckAndMark(RecalculationKey(1, 5, 10)))
}

func TestHasSentAndMarkSent(t *testing.T) {
	s := NewMemoryStore()
	key := ProximityKey(1, 2)

	assert.False(t, s.HasSent(key))

	s.MarkSent(key)
	assert.True(t, s.HasSent(key))

	// Marking again is a no-op.
	s.MarkSent(key)
	assert.True(t, s.HasSent(key))
}

func TestCheckAndMark_FirstCallOnly(t *testing.T) {
	s := NewMemoryStore()
	key := RecalculationKey(1, 2, 3)

	assert.True(t, s.CheckAndMark(key))
	assert.False(t, s.CheckAndMark(key))
	assert.True(t, s.HasSent(key))
}

func TestCheckAndMark_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	key := ProximityKey(9, 99)

	const callers = 64
	var wins atomic.Int64
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if s.CheckAndMark(key) {
				wins.Add(1)
			}
		}()
	}

	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load(), "exactly one caller must observe true")
}
