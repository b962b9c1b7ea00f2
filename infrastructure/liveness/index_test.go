package liveness

import (
	"errors"
	"testing"
	"time"

	"prism.io/infrastructure/liveness/types"
)

func newTestService() *LivenessService {
	return &LivenessService{
		sessions: map[string]*Session{},
		cfg:      DefaultConfig(),
	}
}

func TestServiceSessionLifecycle(t *testing.T) {
	svc := newTestService()

	session, err := svc.CreateSession(SessionOverrides{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if session.ID == "" {
		t.Fatal("session created without an ID")
	}

	got, err := svc.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got != session {
		t.Error("GetSession returned a different session")
	}

	if _, err := svc.EndSession(session.ID); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if _, err := svc.GetSession(session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession after end = %v, want %v", err, ErrSessionNotFound)
	}
	if svc.ActiveSessionCount() != 0 {
		t.Errorf("ActiveSessionCount = %d, want 0", svc.ActiveSessionCount())
	}
}

func TestServiceUnknownSession(t *testing.T) {
	svc := newTestService()

	if _, err := svc.GetSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("GetSession = %v, want %v", err, ErrSessionNotFound)
	}
	if _, err := svc.EndSession("nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("EndSession = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestServiceSessionOverrides(t *testing.T) {
	svc := newTestService()

	t.Run("rppg method", func(t *testing.T) {
		method := types.MethodChrom
		session, err := svc.CreateSession(SessionOverrides{RPPGMethod: &method})
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if session.Method() != types.MethodChrom {
			t.Errorf("Method() = %v, want %v", session.Method(), types.MethodChrom)
		}
	})

	t.Run("strict profile", func(t *testing.T) {
		strict := true
		session, err := svc.CreateSession(SessionOverrides{Strict: &strict})
		if err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
		if session.cfg.DecisionThreshold != StrictConfig().DecisionThreshold {
			t.Errorf("DecisionThreshold = %v, want strict %v", session.cfg.DecisionThreshold, StrictConfig().DecisionThreshold)
		}
	})

	t.Run("invalid fps override is rejected", func(t *testing.T) {
		fps := -1
		if _, err := svc.CreateSession(SessionOverrides{FPS: &fps}); err == nil {
			t.Error("CreateSession accepted a negative FPS")
		}
	})
}

func TestServiceSweepIdle(t *testing.T) {
	svc := newTestService()

	stale, err := svc.CreateSession(SessionOverrides{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	fresh, err := svc.CreateSession(SessionOverrides{})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	stale.mu.Lock()
	stale.lastSeen = time.Now().Add(-time.Duration(svc.cfg.SessionIdleTTLSeconds+10) * time.Second)
	stale.mu.Unlock()

	removed := svc.SweepIdle()

	if removed != 1 {
		t.Errorf("SweepIdle removed %d sessions, want 1", removed)
	}
	if _, err := svc.GetSession(stale.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Error("stale session survived the sweep")
	}
	if _, err := svc.GetSession(fresh.ID); err != nil {
		t.Errorf("fresh session was swept: %v", err)
	}
}
