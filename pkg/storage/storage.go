package storage

import (
	"context"

	"github.com/mailops/ses-guardian/pkg/model"
)

// Storage defines the persistence layer for check history and notification
// delivery attempts.
type Storage interface {
	// RecordCheck persists a single check cycle outcome.
	RecordCheck(ctx context.Context, record *model.CheckRecord) error

	// RecordDelivery persists a single notification delivery attempt.
	RecordDelivery(ctx context.Context, record *model.DeliveryRecord) error

	// ListChecks retrieves check records matching the given filter, newest
	// first.
	ListChecks(ctx context.Context, filter model.HistoryFilter) ([]model.CheckRecord, error)

	// ListDeliveries retrieves delivery records matching the given filter,
	// newest first.
	ListDeliveries(ctx context.Context, filter model.HistoryFilter) ([]model.DeliveryRecord, error)

	// Close releases resources.
	Close() error
}
