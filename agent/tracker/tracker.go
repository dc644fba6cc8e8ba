// Package tracker runs the background order-tracking state machine: one
// cancellable polling task per in-flight order, terminating on a
// delivered-equivalent status, the poll budget, or cancellation.
package tracker

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/ordino-ai/ordino/agent/contract"
	sessionx "github.com/ordino-ai/ordino/agent/session"
	toolx "github.com/ordino-ai/ordino/agent/tool"
)

const (
	DefaultInterval = 180 * time.Second
	DefaultMaxPolls = 10
)

// Executor runs one tool call in the owning session's context; the tracker
// reuses the dispatcher so ledger sync happens on every poll.
type Executor interface {
	Execute(ctx context.Context, sess *sessionx.Session, call contractx.ToolCall) contractx.ToolResult
}

type task struct {
	userID string
	cancel context.CancelFunc
}

// Manager owns all polling tasks, keyed by cart id. Tasks are torn down
// individually, per user on session teardown, or all at once on shutdown;
// none of them outlives the manager.
type Manager struct {
	executor Executor
	notifier contractx.Notifier
	interval time.Duration
	maxPolls int

	mu    sync.Mutex
	tasks map[string]*task
	wg    sync.WaitGroup
}

func NewManager(executor Executor, notifier contractx.Notifier, interval time.Duration, maxPolls int) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxPolls <= 0 {
		maxPolls = DefaultMaxPolls
	}
	return &Manager{
		executor: executor,
		notifier: notifier,
		interval: interval,
		maxPolls: maxPolls,
		tasks:    make(map[string]*task),
	}
}

// Track starts a polling task for the cart. A second Track for the same cart
// id is a no-op while the first is running. ctx is the process root context:
// its cancellation stops the task along with explicit Stop calls.
func (m *Manager) Track(ctx context.Context, sess *sessionx.Session, cartID string) {
	m.mu.Lock()
	if _, running := m.tasks[cartID]; running {
		m.mu.Unlock()
		return
	}
	taskCtx, cancel := context.WithCancel(ctx)
	m.tasks[cartID] = &task{userID: sess.UserID, cancel: cancel}
	m.wg.Add(1)
	m.mu.Unlock()

	log.Info().Str("cart_id", cartID).Str("user", sess.UserID).Msg("order tracking started")

	go func() {
		defer m.wg.Done()
		defer m.remove(cartID)
		defer cancel()
		m.poll(taskCtx, sess, cartID)
	}()
}

func (m *Manager) poll(ctx context.Context, sess *sessionx.Session, cartID string) {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for i := 0; i < m.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		result := m.executor.Execute(ctx, sess, contractx.ToolCall{
			ID:   uuid.NewString(),
			Name: toolx.OpGetTrackingInfo,
		})

		switch {
		case result.Error != "":
			log.Debug().Str("cart_id", cartID).Str("error", result.Error).Msg("tracking poll failed")
		case meaningful(result.Content):
			if err := m.notifier.DeliverText(ctx, sess.UserID, "🔔 Order Update:\n"+result.Content); err != nil {
				log.Warn().Err(err).Str("cart_id", cartID).Msg("order update delivery failed")
			}
			if delivered(result.Content) {
				log.Info().Str("cart_id", cartID).Msg("order delivered, tracking stopped")
				return
			}
		}

		timer.Reset(m.interval)
	}
	log.Info().Str("cart_id", cartID).Int("polls", m.maxPolls).Msg("tracking poll budget exhausted")
}

// Stop cancels the task for one cart id.
func (m *Manager) Stop(cartID string) {
	m.mu.Lock()
	t, ok := m.tasks[cartID]
	m.mu.Unlock()
	if ok {
		t.cancel()
	}
}

// StopUser cancels every task owned by a user's session.
func (m *Manager) StopUser(userID string) {
	m.mu.Lock()
	var cancels []context.CancelFunc
	for _, t := range m.tasks {
		if t.userID == userID {
			cancels = append(cancels, t.cancel)
		}
	}
	m.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
}

// Shutdown cancels everything and waits for the tasks to drain.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, t := range m.tasks {
		t.cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Active reports how many tasks are currently polling.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *Manager) remove(cartID string) {
	m.mu.Lock()
	delete(m.tasks, cartID)
	m.mu.Unlock()
}

// meaningful filters out the "nothing to report" shapes so users are not
// pinged about an empty tracking response.
func meaningful(text string) bool {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return false
	}
	return !strings.Contains(lower, "no active orders") && !strings.Contains(lower, "error")
}

func delivered(text string) bool {
	return strings.Contains(strings.ToLower(text), "delivered")
}
