package middleware

import (
	"testing"
	"time"
)

func TestRateLimiterExhaustsAndRefills(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(3, 300*time.Millisecond)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow() {
		t.Fatal("request beyond capacity should be rejected")
	}

	// Tokens refill continuously at requests/window.
	time.Sleep(350 * time.Millisecond)
	if !rl.Allow() {
		t.Fatal("expected a token after the window elapsed")
	}
}
