// Package session keeps live chat sessions in memory and binds them to requests.
package session

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"investchat/internal/service/chat"
)

// Factory creates a fresh chat session.
type Factory interface {
	NewSession() *chat.Session
}

// Store holds live sessions until they are reset or idle for longer than the TTL.
type Store struct {
	cache   *gocache.Cache
	factory Factory
	log     *zap.Logger
}

// NewStore builds a store whose sessions expire after ttl without access.
func NewStore(factory Factory, ttl time.Duration, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	s := &Store{
		cache:   gocache.New(ttl, ttl/2),
		factory: factory,
		log:     log.Named("session"),
	}
	s.cache.OnEvicted(func(id string, _ interface{}) {
		s.log.Info("session ended", zap.String("session_id", id))
	})
	return s
}

// Create starts and registers a new session.
func (s *Store) Create() *chat.Session {
	sess := s.factory.NewSession()
	s.cache.SetDefault(sess.ID, sess)
	return sess
}

// Get returns a live session and refreshes its expiry.
func (s *Store) Get(id string) (*chat.Session, bool) {
	if id == "" {
		return nil, false
	}
	val, ok := s.cache.Get(id)
	if !ok {
		return nil, false
	}
	sess, ok := val.(*chat.Session)
	if !ok {
		return nil, false
	}
	s.cache.SetDefault(id, sess)
	return sess, true
}

// GetOrCreate returns the session for id, or a new one when it is unknown.
func (s *Store) GetOrCreate(id string) (*chat.Session, bool) {
	if sess, ok := s.Get(id); ok {
		return sess, false
	}
	return s.Create(), true
}

// Delete ends a session. It reports whether the session existed.
func (s *Store) Delete(id string) bool {
	if _, ok := s.cache.Get(id); !ok {
		return false
	}
	s.cache.Delete(id)
	return true
}

// Len counts live sessions, including expired ones not yet purged.
func (s *Store) Len() int {
	return s.cache.ItemCount()
}
