package database

import (
	"context"

	"github.com/danielbgg/payment-batch/internal/models"
)

// BatchWriter commits one chunk of processed payments as a unit. Implementations do not retry.
type BatchWriter interface {
	WriteBatch(ctx context.Context, collection string, payments []*models.Payment) error
}
