package services

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-viewer/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type sessionItem struct {
	screen    *Screen
	expiresAt time.Time
}

// SessionStore keeps one Screen per browser session in memory. Sessions
// expire after ttl without access and are dropped by Cleanup.
type SessionStore struct {
	mu        sync.RWMutex
	sessions  map[string]sessionItem
	newScreen func() *Screen
	clock     clockwork.Clock
	ttl       time.Duration
	maxSize   int
	metrics   *observability.Metrics
	logger    *zap.Logger
}

func NewSessionStore(newScreen func() *Screen, ttl time.Duration, maxSize int, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *SessionStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionStore{
		sessions:  make(map[string]sessionItem),
		newScreen: newScreen,
		clock:     clock,
		ttl:       ttl,
		maxSize:   maxSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Create starts a new session and returns its id.
func (s *SessionStore) Create() (string, *Screen) {
	id := uuid.NewString()
	screen := s.newScreen()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Evict if store is too large
	if len(s.sessions) >= s.maxSize {
		s.evictOldest()
	}

	s.sessions[id] = sessionItem{
		screen:    screen,
		expiresAt: s.clock.Now().Add(s.ttl),
	}
	s.metrics.SessionsActive.Set(float64(len(s.sessions)))

	s.logger.Debug("Session created", zap.String("session", id))
	return id, screen
}

// Get returns the live session for id and extends its expiry.
func (s *SessionStore) Get(id string) (*Screen, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.sessions[id]
	if !exists {
		return nil, false
	}

	now := s.clock.Now()
	if now.After(item.expiresAt) {
		delete(s.sessions, id)
		s.metrics.SessionsActive.Set(float64(len(s.sessions)))
		return nil, false
	}

	item.expiresAt = now.Add(s.ttl)
	s.sessions[id] = item
	return item.screen, true
}

func (s *SessionStore) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range s.sessions {
		if oldestKey == "" || item.expiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.expiresAt
		}
	}

	if oldestKey != "" {
		delete(s.sessions, oldestKey)
		s.logger.Debug("Evicted oldest session", zap.String("session", oldestKey))
	}
}

// Cleanup removes expired sessions and returns how many were dropped.
func (s *SessionStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	expiredCount := 0

	for id, item := range s.sessions {
		if now.After(item.expiresAt) {
			delete(s.sessions, id)
			expiredCount++
		}
	}
	s.metrics.SessionsActive.Set(float64(len(s.sessions)))

	if expiredCount > 0 {
		s.logger.Debug("Cleaned expired sessions",
			zap.Int("count", expiredCount))
	}
	return expiredCount
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"sessions": len(s.sessions),
		"max_size": s.maxSize,
		"ttl":      s.ttl.String(),
	}
}
