package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	contractx "github.com/ordino-ai/ordino/agent/contract"
	sessionx "github.com/ordino-ai/ordino/agent/session"
)

type scriptedExecutor struct {
	mu      sync.Mutex
	results []contractx.ToolResult
	polls   int
}

func (f *scriptedExecutor) Execute(ctx context.Context, sess *sessionx.Session, call contractx.ToolCall) contractx.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.polls
	f.polls++
	if idx < len(f.results) {
		return f.results[idx]
	}
	if len(f.results) == 0 {
		return contractx.ToolResult{Name: call.Name, Content: "Order is being prepared"}
	}
	return f.results[len(f.results)-1]
}

func (f *scriptedExecutor) pollCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.polls
}

type recordingNotifier struct {
	mu    sync.Mutex
	texts []string
}

func (f *recordingNotifier) DeliverText(ctx context.Context, userID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *recordingNotifier) DeliverImage(ctx context.Context, userID, imagePath string) error {
	return nil
}

func (f *recordingNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.texts)
}

func waitIdle(t *testing.T, m *Manager) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for m.Active() > 0 {
		select {
		case <-deadline:
			t.Fatal("tracker tasks did not finish in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestTrackerStopsAtPollBudget(t *testing.T) {
	t.Parallel()

	executor := &scriptedExecutor{} // always "being prepared"
	notifier := &recordingNotifier{}
	m := NewManager(executor, notifier, 2*time.Millisecond, 3)

	m.Track(context.Background(), sessionx.New("u1"), "c1")
	waitIdle(t, m)

	if got := executor.pollCount(); got != 3 {
		t.Fatalf("expected exactly 3 polls, got %d", got)
	}
	if got := notifier.count(); got != 3 {
		t.Fatalf("expected a notification per meaningful poll, got %d", got)
	}
}

func TestTrackerStopsOnDelivered(t *testing.T) {
	t.Parallel()

	executor := &scriptedExecutor{results: []contractx.ToolResult{
		{Content: "Order is on the way"},
		{Content: "Order Delivered. Enjoy!"},
	}}
	notifier := &recordingNotifier{}
	m := NewManager(executor, notifier, 2*time.Millisecond, 10)

	m.Track(context.Background(), sessionx.New("u1"), "c1")
	waitIdle(t, m)

	if got := executor.pollCount(); got != 2 {
		t.Fatalf("tracking must stop at first delivered status, polled %d times", got)
	}
	if got := notifier.count(); got != 2 {
		t.Fatalf("expected 2 notifications, got %d", got)
	}
}

func TestTrackerSkipsQuietResponses(t *testing.T) {
	t.Parallel()

	executor := &scriptedExecutor{results: []contractx.ToolResult{
		{Content: "No active orders found"},
		{Error: "tool service is not connected"},
		{Content: "Order Delivered"},
	}}
	notifier := &recordingNotifier{}
	m := NewManager(executor, notifier, 2*time.Millisecond, 10)

	m.Track(context.Background(), sessionx.New("u1"), "c1")
	waitIdle(t, m)

	if got := notifier.count(); got != 1 {
		t.Fatalf("quiet and failed polls must not notify, got %d notifications", got)
	}
}

func TestTrackerCancellation(t *testing.T) {
	t.Parallel()

	executor := &scriptedExecutor{}
	m := NewManager(executor, &recordingNotifier{}, time.Hour, 10)

	m.Track(context.Background(), sessionx.New("u1"), "c1")
	if m.Active() != 1 {
		t.Fatalf("expected one active task, got %d", m.Active())
	}

	m.Stop("c1")
	waitIdle(t, m)

	if got := executor.pollCount(); got != 0 {
		t.Fatalf("cancelled task must not poll, got %d polls", got)
	}
}

func TestTrackerStopUser(t *testing.T) {
	t.Parallel()

	m := NewManager(&scriptedExecutor{}, &recordingNotifier{}, time.Hour, 10)
	alice := sessionx.New("alice")
	bob := sessionx.New("bob")

	m.Track(context.Background(), alice, "a1")
	m.Track(context.Background(), alice, "a2")
	m.Track(context.Background(), bob, "b1")
	if m.Active() != 3 {
		t.Fatalf("expected 3 active tasks, got %d", m.Active())
	}

	m.StopUser("alice")
	deadline := time.After(3 * time.Second)
	for m.Active() != 1 {
		select {
		case <-deadline:
			t.Fatalf("alice's tasks still active: %d", m.Active())
		case <-time.After(5 * time.Millisecond):
		}
	}

	m.Shutdown()
	if m.Active() != 0 {
		t.Fatalf("shutdown must drain every task, %d left", m.Active())
	}
}

func TestTrackDuplicateCartIsNoop(t *testing.T) {
	t.Parallel()

	m := NewManager(&scriptedExecutor{}, &recordingNotifier{}, time.Hour, 10)
	sess := sessionx.New("u1")

	m.Track(context.Background(), sess, "c1")
	m.Track(context.Background(), sess, "c1")
	if m.Active() != 1 {
		t.Fatalf("duplicate track must not spawn a second task, got %d", m.Active())
	}
	m.Shutdown()
}
