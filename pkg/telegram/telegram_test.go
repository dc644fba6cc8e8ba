package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"
)

func TestChunk(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, []string{""}},
		{"fits", "hello", 10, []string{"hello"}},
		{"exact boundary", "abcdef", 6, []string{"abcdef"}},
		{"split once", "abcdefgh", 6, []string{"abcdef", "gh"}},
		{"split twice", "abcdefghijklm", 5, []string{"abcde", "fghij", "klm"}},
		{"nonpositive limit", "abc", 0, []string{"abc"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Chunk(tc.text, tc.limit)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d chunks %v, want %v", len(got), got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("chunk %d: got %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestChunkKeepsRunesIntact(t *testing.T) {
	t.Parallel()

	// 3-byte runes at a limit that is not a multiple of 3 force the cut
	// point off a rune boundary.
	text := "🔔 Order Update:\n" + strings.Repeat("अ", 1400)
	chunks := Chunk(text, chunkLimit)
	if len(chunks) < 2 {
		t.Fatalf("expected the text to split, got %d chunks", len(chunks))
	}
	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if len(chunk) > chunkLimit {
			t.Fatalf("chunk %d exceeds limit: %d bytes", i, len(chunk))
		}
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d is not valid UTF-8", i)
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Fatal("chunks must concatenate back to the original text")
	}
}

func TestChunkReassemblesLosslessly(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("order status line\n", 400)
	var rebuilt strings.Builder
	for _, chunk := range Chunk(text, chunkLimit) {
		if len(chunk) > chunkLimit {
			t.Fatalf("chunk exceeds limit: %d bytes", len(chunk))
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Fatal("chunks must concatenate back to the original text")
	}
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(Config{Token: "  "}); err == nil {
		t.Fatal("expected error for a blank token")
	}
	c, err := NewClient(Config{Token: "t0k", BaseURL: "https://example.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.methodURL("sendMessage"); got != "https://example.com/bott0k/sendMessage" {
		t.Fatalf("trailing slash must be trimmed from the base url, got %q", got)
	}
}

func TestDeliverTextSplitsLongMessages(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/sendMessage") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var params struct {
			ChatID int64  `json:"chat_id"`
			Text   string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if params.ChatID != 42 {
			t.Errorf("chat_id = %d, want 42", params.ChatID)
		}
		mu.Lock()
		texts = append(texts, params.Text)
		mu.Unlock()
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Token: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	long := strings.Repeat("x", chunkLimit+100)
	if err := client.DeliverText(context.Background(), "42", long); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(texts) != 2 {
		t.Fatalf("expected 2 sendMessage calls, got %d", len(texts))
	}
	if texts[0]+texts[1] != long {
		t.Fatal("chunks must reassemble into the original message")
	}
}

func TestDeliverTextRejectsNonNumericChat(t *testing.T) {
	t.Parallel()

	client := MustNew(Config{Token: "test"})
	if err := client.DeliverText(context.Background(), "not-a-chat", "hi"); err == nil {
		t.Fatal("expected error for non-numeric chat id")
	}
}

func TestCallSurfacesAPIErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Token: "test", BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.DeliverText(context.Background(), "42", "hi")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected the api description in the error, got %v", err)
	}
}
