// Package session stores per-visitor form state between the confirm and
// submit steps. Two backends are provided: an in-process map for single
// instances and a Redis store for horizontally scaled deployments.
package session

import (
	"context"
	"time"

	"github.com/bagooon/chatease-intake/internal/domain"
)

// DefaultTTL bounds how long confirmed values wait for the submit step.
const DefaultTTL = 30 * time.Minute

// Store persists confirmed submission values keyed by session key.
//
// Get and Claim return (nil, nil) when no state exists for the key; absence
// is an expected outcome, not an error. Claim atomically removes the state
// it returns so that two concurrent submits cannot both observe it.
type Store interface {
	Get(ctx context.Context, key string) (*domain.SubmissionValues, error)
	Set(ctx context.Context, key string, values domain.SubmissionValues) error
	Delete(ctx context.Context, key string) error
	Claim(ctx context.Context, key string) (*domain.SubmissionValues, error)
}
