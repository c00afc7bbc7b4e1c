package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcChen/CertifyHub/internal/identity"
)

// scriptedFetcher replays a fixed sequence of results, repeating the last
// one when the script runs out.
type scriptedFetcher struct {
	script []Result
	calls  int
}

func (s *scriptedFetcher) Fetch(ctx context.Context, target string, id identity.Identity) Result {
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	return s.script[i]
}

func fastRetry(attempts int) Retry {
	return Retry{MaxAttempts: attempts, BaseDelay: time.Millisecond, RotateIdentity: true}
}

func TestDoSucceedsAfterChallenges(t *testing.T) {
	f := &scriptedFetcher{script: []Result{
		{Outcome: OutcomeChallenged},
		{Outcome: OutcomeChallenged},
		{Outcome: OutcomePage, HTML: "<html>ok</html>"},
	}}
	rot := identity.NewRotator(identity.Options{})

	res := fastRetry(3).Do(context.Background(), f, rot, "https://example.com", zerolog.Nop())

	assert.Equal(t, OutcomePage, res.Outcome)
	assert.Equal(t, 3, f.calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	f := &scriptedFetcher{script: []Result{{Outcome: OutcomeBlocked}}}
	rot := identity.NewRotator(identity.Options{})

	res := fastRetry(2).Do(context.Background(), f, rot, "https://example.com", zerolog.Nop())

	assert.Equal(t, OutcomeBlocked, res.Outcome)
	assert.Equal(t, 2, f.calls)
}

func TestDoBlockedRotatesAwayFromIdentity(t *testing.T) {
	f := &scriptedFetcher{script: []Result{{Outcome: OutcomeBlocked}}}
	rot := identity.NewRotator(identity.Options{})

	fastRetry(3).Do(context.Background(), f, rot, "https://example.com", zerolog.Nop())

	// Every blocked attempt cooled its fingerprint; the next draws must
	// still succeed because the pool is larger than the attempt count.
	_, err := rot.Next()
	require.NoError(t, err)
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &scriptedFetcher{script: []Result{{Outcome: OutcomePage}}}
	rot := identity.NewRotator(identity.Options{})

	res := fastRetry(3).Do(ctx, f, rot, "https://example.com", zerolog.Nop())

	assert.Equal(t, OutcomeNetworkError, res.Outcome)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Zero(t, f.calls)
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "page", OutcomePage.String())
	assert.Equal(t, "challenged", OutcomeChallenged.String())
	assert.Equal(t, "blocked", OutcomeBlocked.String())
	assert.Equal(t, "network_error", OutcomeNetworkError.String())
}
