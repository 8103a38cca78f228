package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Amund211/quotelight/internal/domain"
	"github.com/Amund211/quotelight/internal/logging"
)

// WithAuth calls block with a valid credential.
// If block reports the credential as unauthorized, the credential is discarded,
// a new one is acquired and block is called once more. Never more than two attempts.
func WithAuth[T any](ctx context.Context, store *Store, block func(ctx context.Context, credential *Credential) (T, error)) (T, error) {
	var zero T
	logger := logging.FromContext(ctx)

	credential, err := store.valid(ctx)
	if err != nil {
		return zero, err
	}

	result, err := block(ctx, credential)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return result, err
	}

	if store.expire(ctx, credential) {
		logger.InfoContext(ctx, "Credential rejected, resetting", "acquiredAt", credential.AcquiredAt, "error", err)
	} else {
		logger.InfoContext(ctx, "Credential rejected, already replaced", "acquiredAt", credential.AcquiredAt)
	}
	metrics.retries.Add(ctx, 1)

	fresh, err := store.valid(ctx)
	if err != nil {
		return zero, err
	}

	result, err = block(ctx, fresh)
	if err != nil {
		return zero, fmt.Errorf("%w: call failed after refreshing credential: %w", domain.ErrUpstreamFailure, err)
	}

	return result, nil
}
