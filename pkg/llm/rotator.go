package llm

import (
	"errors"
	"strings"
	"sync/atomic"
)

// Rotator cycles through a fixed set of backend API keys, one per outbound
// model invocation. Rotation is global, not per-session, and safe for
// concurrent use (atomic increment-and-wrap).
type Rotator struct {
	keys []string
	next atomic.Uint64
}

// NewRotator builds a rotator from the configured key list, falling back to
// the single static key when the list is empty. Having neither is a startup
// precondition failure.
func NewRotator(keys []string, fallback string) (*Rotator, error) {
	cleaned := make([]string, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		fallback = strings.TrimSpace(fallback)
		if fallback == "" {
			return nil, errors.New("no backend api keys configured")
		}
		cleaned = []string{fallback}
	}
	return &Rotator{keys: cleaned}, nil
}

// Next returns the next key in cyclic order.
func (r *Rotator) Next() string {
	n := r.next.Add(1) - 1
	return r.keys[n%uint64(len(r.keys))]
}

// Size reports how many keys are in rotation.
func (r *Rotator) Size() int {
	return len(r.keys)
}
