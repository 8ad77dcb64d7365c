package memory

import (
	"time"

	"interview-assist-be/internal/pkg/logger"
	"interview-assist-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type SessionRepository struct {
	cache  *cache.Cache
	logger logger.ILogger
}

func NewSessionRepository(log logger.ILogger) *SessionRepository {
	// Sessions live for the length of an interview plus slack; purge
	// expired entries every 10 minutes.
	c := cache.New(6*time.Hour, 10*time.Minute)
	return &SessionRepository{
		cache:  c,
		logger: log,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

// GetOrCreate returns the session for the ID, creating it on first use so
// a websocket client can start streaming before any HTTP setup call.
func (r *SessionRepository) GetOrCreate(sessionID string) *store.Session {
	if session, found := r.Get(sessionID); found {
		return session
	}
	session := store.NewSession(sessionID, r.logger)
	r.cache.Set(sessionID, session, cache.DefaultExpiration)
	return session
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
