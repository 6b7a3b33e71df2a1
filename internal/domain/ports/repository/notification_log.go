package repository

import (
	"context"
)

// -----------------------------
// Reminder log
// -----------------------------

type NotificationLogRepository interface {
	// Save records that a reminder was sent.
	Save(ctx context.Context, tx Tx, recordID, userID, kind string, thresholdDays int) error
	// Exists checks if a specific reminder has already been sent.
	Exists(ctx context.Context, tx Tx, recordID, kind string, thresholdDays int) (bool, error)
}
