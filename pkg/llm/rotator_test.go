package llm

import (
	"sync"
	"testing"
)

func TestRotatorCyclesInOrder(t *testing.T) {
	t.Parallel()

	r, err := NewRotator([]string{"k1", "k2", "k3"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"k1", "k2", "k3", "k1", "k2", "k3", "k1"}
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Fatalf("call %d: got %q, want %q", i, got, w)
		}
	}
}

func TestRotatorFallsBackToSingleKey(t *testing.T) {
	t.Parallel()

	r, err := NewRotator(nil, "solo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Size() != 1 {
		t.Fatalf("expected 1 key, got %d", r.Size())
	}
	if r.Next() != "solo" || r.Next() != "solo" {
		t.Fatal("single-key rotation must keep returning the fallback key")
	}
}

func TestRotatorSkipsBlankEntries(t *testing.T) {
	t.Parallel()

	r, err := NewRotator([]string{" ", "k1", "", "k2 "}, "ignored")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Size() != 2 {
		t.Fatalf("blank entries must be dropped, got %d keys", r.Size())
	}
	if got := r.Next(); got != "k1" {
		t.Fatalf("got %q, want k1", got)
	}
	if got := r.Next(); got != "k2" {
		t.Fatalf("whitespace must be trimmed, got %q", got)
	}
}

func TestRotatorRequiresAtLeastOneKey(t *testing.T) {
	t.Parallel()

	if _, err := NewRotator([]string{"", "  "}, " "); err == nil {
		t.Fatal("expected error when neither key list nor fallback is usable")
	}
}

func TestRotatorConcurrentUse(t *testing.T) {
	t.Parallel()

	r, err := NewRotator([]string{"a", "b", "c"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const workers, perWorker = 8, 300
	counts := make([]map[string]int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seen := make(map[string]int)
			for i := 0; i < perWorker; i++ {
				seen[r.Next()]++
			}
			counts[w] = seen
		}(w)
	}
	wg.Wait()

	total := make(map[string]int)
	for _, seen := range counts {
		for k, n := range seen {
			total[k] += n
		}
	}
	sum := 0
	for _, key := range []string{"a", "b", "c"} {
		if total[key] != workers*perWorker/3 {
			t.Fatalf("uneven rotation: %v", total)
		}
		sum += total[key]
	}
	if sum != workers*perWorker {
		t.Fatalf("expected %d draws, got %d", workers*perWorker, sum)
	}
}
