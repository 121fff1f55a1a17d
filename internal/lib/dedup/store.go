package dedup

import (
	"strconv"
	"sync"
)

// Key identifies a single notification event. ItineraryID is zero for
// proximity alerts and set for recalculation alerts, mirroring the two
// key shapes (user, incident) and (user, itinerary, incident).
type Key struct {
	UserID      int64
	ItineraryID int64
	IncidentID  int64
}

// String renders the key in user:itinerary:incident form.
func (k Key) String() string {
	return strconv.FormatInt(k.UserID, 10) + ":" +
		strconv.FormatInt(k.ItineraryID, 10) + ":" +
		strconv.FormatInt(k.IncidentID, 10)
}

// ProximityKey builds a dedup key for a user/incident proximity alert.
func ProximityKey(userID, incidentID int64) Key {
	return Key{UserID: userID, IncidentID: incidentID}
}

// RecalculationKey builds a dedup key for a recalculation alert.
func RecalculationKey(userID, itineraryID, incidentID int64) Key {
	return Key{UserID: userID, ItineraryID: itineraryID, IncidentID: incidentID}
}

// Store tracks which notification keys have already been dispatched,
// guaranteeing at-most-one notification per key for the lifetime of the
// backing store. Keys are append-only: there is no removal or expiry.
//
// Implementations must make CheckAndMark atomic — under concurrent calls
// for the same key, exactly one caller observes true.
type Store interface {
	// HasSent reports whether the key has already been marked.
	HasSent(key Key) bool

	// MarkSent marks the key as sent. Marking an already-marked key is a
	// no-op.
	MarkSent(key Key)

	// CheckAndMark atomically marks the key and reports whether this call
	// was the first to do so. Callers dispatching notifications must use
	// this, not HasSent followed by MarkSent.
	CheckAndMark(key Key) bool
}

// MemoryStore is the single-instance Store implementation: a mutex-guarded
// set keyed by the rendered key.
//
// State is process-local and lost on restart, so a redeploy may renotify.
// Deployments running several instances do not share state through this
// type; they need a Store backed by an external shared store instead —
// that is a deployment configuration decision, never an implicit one.
type MemoryStore struct {
	mu   sync.Mutex
	sent map[string]struct{}
}

// NewMemoryStore creates an empty in-memory dedup store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sent: make(map[string]struct{})}
}

func (s *MemoryStore) HasSent(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sent[key.String()]
	return ok
}

func (s *MemoryStore) MarkSent(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent[key.String()] = struct{}{}
}

func (s *MemoryStore) CheckAndMark(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if _, ok := s.sent[k]; ok {
		return false
	}
	s.sent[k] = struct{}{}
	return true
}
