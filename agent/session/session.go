package session

import (
	"sync"
	"time"

	contractx "github.com/ordino-ai/ordino/agent/contract"
)

// AuthPhase is the per-session login handshake state.
type AuthPhase string

const (
	AuthNone          AuthPhase = "unauthenticated"
	AuthAwaitingOtp   AuthPhase = "awaiting_otp"
	AuthAuthenticated AuthPhase = "authenticated"
)

// MaxHistoryTurns bounds the retained conversation history. The oldest turns
// are dropped first; sessions themselves live for the process lifetime.
const MaxHistoryTurns = 40

// Session owns one user's conversation history, login handshake state, and
// the set of cart ids waiting for background tracking. Turn processing is
// strictly sequential per session: callers hold the session lock for the
// whole message → loop → delivery cycle, so a second message queues behind
// the in-flight one instead of interleaving tool-call cycles.
type Session struct {
	UserID string

	turnMu sync.Mutex // serializes whole turns, held across the loop

	mu              sync.Mutex // guards the fields below
	history         []contractx.Turn
	authPhase       AuthPhase
	pendingArtifact string
	pendingTracking []string
	createdAt       time.Time
}

func New(userID string) *Session {
	return &Session{
		UserID:    userID,
		authPhase: AuthNone,
		createdAt: time.Now().UTC(),
	}
}

// Acquire blocks until this session's turn slot is free. Release must be
// called when the turn is fully processed.
func (s *Session) Acquire() { s.turnMu.Lock() }
func (s *Session) Release() { s.turnMu.Unlock() }

// Append adds a turn to the history and trims it to the retained bound.
func (s *Session) Append(turn contractx.Turn) {
	if turn.At.IsZero() {
		turn.At = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
	if overflow := len(s.history) - MaxHistoryTurns; overflow > 0 {
		trimmed := s.history[overflow:]
		// A tool-result turn is only replayable behind the assistant turn
		// that requested it; drop orphans the trim left at the head.
		for len(trimmed) > 0 && trimmed[0].Role == contractx.RoleToolResult {
			trimmed = trimmed[1:]
		}
		s.history = append([]contractx.Turn(nil), trimmed...)
	}
}

// History returns a copy of the retained history in order.
func (s *Session) History() []contractx.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contractx.Turn(nil), s.history...)
}

// BeginLogin stores the raw phone-bind artifact and moves the handshake to
// the awaiting-OTP phase. The artifact must be replayed verbatim at verify.
func (s *Session) BeginLogin(artifact string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingArtifact = artifact
	s.authPhase = AuthAwaitingOtp
}

// PendingArtifact returns the stored artifact and whether the session is in
// the awaiting-OTP phase. Verify is only valid while ok is true.
func (s *Session) PendingArtifact() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingArtifact, s.authPhase == AuthAwaitingOtp
}

// CompleteLogin clears the artifact and marks the session authenticated.
func (s *Session) CompleteLogin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingArtifact = ""
	s.authPhase = AuthAuthenticated
}

// Auth reports the current handshake phase.
func (s *Session) Auth() AuthPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authPhase
}

// QueueTracking registers a cart id whose order should start background
// tracking once the current turn finishes.
func (s *Session) QueueTracking(cartID string) {
	if cartID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.pendingTracking {
		if id == cartID {
			return
		}
	}
	s.pendingTracking = append(s.pendingTracking, cartID)
}

// DrainTracking returns and clears the queued cart ids.
func (s *Session) DrainTracking() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.pendingTracking
	s.pendingTracking = nil
	return ids
}
