package holdings

import (
	"context"
	"errors"

	"fundledger-backend/internal/domain"

	"github.com/rs/zerolog/log"
)

// RunWithRetry runs fn, retrying up to maxRetries more times while it fails
// with domain.ErrConcurrentUpdate. fn must run its own transaction so every
// attempt starts from a clean rollback.
func RunWithRetry(ctx context.Context, maxRetries int, fn func() error) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = fn()
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		log.Warn().Int("attempt", attempt+1).Msg("Holding version conflict, retrying")
	}
	return err
}
