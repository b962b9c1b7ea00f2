package liveness

import (
	"errors"
	"sync"
	"time"

	"prism.io/infrastructure/logger"
	"prism.io/infrastructure/liveness/types"
)

// ErrSessionNotFound is returned for lookups of unknown or expired sessions.
var ErrSessionNotFound = errors.New("liveness session not found")

// SessionOverrides carries the per-session knobs a caller may tune without
// touching the service-wide config.
type SessionOverrides struct {
	RPPGMethod *types.RPPGMethod
	Strict     *bool
	FPS        *int
}

// LivenessService is the process-wide session registry. Session state lives
// in memory only; persistence of finished attempts happens downstream.
type LivenessService struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	cfg      Config
}

var (
	service     *LivenessService
	serviceOnce sync.Once
)

// InitialiseLivenessService loads config from the environment and fails fast
// on an invalid value set.
func InitialiseLivenessService() *LivenessService {
	serviceOnce.Do(func() {
		cfg := ConfigFromEnv()
		if err := cfg.Validate(); err != nil {
			logger.Error("invalid liveness configuration", logger.LoggerOptions{
				Key:  "error",
				Data: err.Error(),
			})
			panic(err)
		}
		service = &LivenessService{
			sessions: map[string]*Session{},
			cfg:      cfg,
		}
		logger.Info("liveness service initialised", logger.LoggerOptions{
			Key:  "rppgMethod",
			Data: cfg.RPPGMethod,
		}, logger.LoggerOptions{
			Key:  "decisionThreshold",
			Data: cfg.DecisionThreshold,
		})
	})
	return service
}

// Instance returns the initialised service.
func Instance() *LivenessService {
	return InitialiseLivenessService()
}

// Config returns a copy of the service-wide configuration.
func (l *LivenessService) Config() Config {
	return l.cfg
}

// CreateSession registers a new session, applying any per-session overrides
// on top of the service config.
func (l *LivenessService) CreateSession(overrides SessionOverrides) (*Session, error) {
	cfg := l.cfg
	if overrides.Strict != nil && *overrides.Strict {
		cfg = StrictConfig()
	}
	if overrides.RPPGMethod != nil {
		cfg.RPPGMethod = *overrides.RPPGMethod
	}
	if overrides.FPS != nil {
		cfg.FPS = *overrides.FPS
	}
	session, err := NewSession(cfg)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.sessions[session.ID] = session
	l.mu.Unlock()
	logger.Info("liveness session created", logger.LoggerOptions{
		Key:  "sessionID",
		Data: session.ID,
	}, logger.LoggerOptions{
		Key:  "rppgMethod",
		Data: session.Method(),
	})
	return session, nil
}

// GetSession looks up a live session by ID.
func (l *LivenessService) GetSession(id string) (*Session, error) {
	l.mu.RLock()
	session, ok := l.sessions[id]
	l.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// EndSession finalizes the session and removes it from the registry,
// returning the closing result (nil when no frame was ever accepted).
func (l *LivenessService) EndSession(id string) (*types.LivenessResult, error) {
	l.mu.Lock()
	session, ok := l.sessions[id]
	if ok {
		delete(l.sessions, id)
	}
	l.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Finalize(), nil
}

// SweepIdle drops sessions that have not seen a frame within the idle TTL
// and returns how many were removed.
func (l *LivenessService) SweepIdle() int {
	cutoff := time.Now().Add(-time.Duration(l.cfg.SessionIdleTTLSeconds) * time.Second)
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, session := range l.sessions {
		if session.IdleSince().Before(cutoff) {
			delete(l.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("idle liveness sessions swept", logger.LoggerOptions{
			Key:  "removed",
			Data: removed,
		})
	}
	return removed
}

// ActiveSessionCount reports the number of registered sessions.
func (l *LivenessService) ActiveSessionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.sessions)
}
