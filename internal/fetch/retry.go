package fetch

import (
	"context"
	"time"

	random "github.com/mazen160/go-random"
	"github.com/rs/zerolog"

	"github.com/MarcChen/CertifyHub/internal/identity"
)

// Retry is the shared retry-with-backoff policy used by both harvest
// phases. Attempts are bounded; backoff is exponential with jitter; a new
// identity is drawn between attempts when RotateIdentity is set.
type Retry struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	RotateIdentity bool
}

// DefaultRetry matches the site's observed tolerance.
var DefaultRetry = Retry{MaxAttempts: 3, BaseDelay: 2 * time.Second, RotateIdentity: true}

// Do fetches target until a page comes back or attempts run out, rotating
// identity and reporting blocked/network failures to the rotator so their
// proxies cool down. The last result is returned on exhaustion.
func (r Retry) Do(ctx context.Context, f Fetcher, rot *identity.Rotator, target string, log zerolog.Logger) Result {
	attempts := r.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var last Result
	var id identity.Identity
	var haveID bool
	delay := r.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{Outcome: OutcomeNetworkError, Err: err}
		}

		if !haveID || r.RotateIdentity {
			next, err := rot.Next()
			if err != nil {
				// Pool exhausted: fatal for this attempt only. The
				// backoff below gives cooldowns a chance to expire.
				log.Warn().Int("attempt", attempt).Str("target", target).Err(err).Msg("no identity available")
				last = Result{Outcome: OutcomeNetworkError, Err: err}
				if attempt < attempts {
					if err := sleepBackoff(ctx, delay); err != nil {
						return last
					}
					delay *= 2
				}
				continue
			}
			id = next
			haveID = true
		}

		last = f.Fetch(ctx, target, id)
		log.Debug().
			Int("attempt", attempt).
			Str("target", target).
			Str("outcome", last.Outcome.String()).
			Str("proxy", id.Proxy).
			Msg("fetch attempt")

		if last.Outcome == OutcomePage {
			return last
		}
		if last.Outcome == OutcomeBlocked || last.Outcome == OutcomeNetworkError {
			rot.ReportFailure(id)
		}

		if attempt < attempts {
			if err := sleepBackoff(ctx, delay); err != nil {
				return last
			}
			delay *= 2
		}
	}

	log.Warn().Str("target", target).Str("outcome", last.Outcome.String()).Msg("retries exhausted")
	return last
}

// sleepBackoff waits delay plus up to 50% jitter, honoring cancellation.
func sleepBackoff(ctx context.Context, delay time.Duration) error {
	jitter := time.Duration(0)
	if delay > 0 {
		if n, err := random.IntRange(0, int(delay/2)); err == nil {
			jitter = time.Duration(n)
		}
	}
	t := time.NewTimer(delay + jitter)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
