package events

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/loginlink/loginlink/internal/logging"
)

// syncBuffer serializes writes; the broker may deliver concurrently.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestNotifier(t *testing.T) (*Notifier, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	n, err := NewNotifier(buf, logger)
	if err != nil {
		t.Fatalf("NewNotifier error: %v", err)
	}
	return n, buf
}

func TestTokensIssued_WritesEvent(t *testing.T) {
	n, buf := newTestNotifier(t)

	n.TokensIssued(context.Background(), "u-1", 3)

	out := buf.String()
	if !strings.Contains(out, "tokens-issued") {
		t.Fatalf("expected event type in output:\n%s", out)
	}
	if !strings.Contains(out, `"user_id":"u-1"`) {
		t.Fatalf("expected user id in output:\n%s", out)
	}
	if !strings.Contains(out, `"count":3`) {
		t.Fatalf("expected count in output:\n%s", out)
	}
}

func TestRedemptionEvents_WriteBothTypes(t *testing.T) {
	n, buf := newTestNotifier(t)
	ctx := context.Background()

	n.TokenRedeemed(ctx, "u-2")
	n.PostAuthentication(ctx, "u-2")

	out := buf.String()
	for _, want := range []string{"token-redeemed", "post-authentication", `"user_id":"u-2"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
