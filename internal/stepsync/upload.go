package stepsync

import (
	"context"
	"errors"
	"fmt"

	"run4recht/internal/activity"
)

var ErrUpload = errors.New("upload failed")

// UploadFunc sends a single record to the statistics service.
type UploadFunc func(ctx context.Context, rec activity.StatisticRecord) error

// UploadSequential uploads records in order, one at a time, and stops at the first failure.
// It returns the number of records uploaded before the failure. Nothing is retried.
func UploadSequential(ctx context.Context, records []activity.StatisticRecord, uploadOne UploadFunc) (int, error) {
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := uploadOne(ctx, rec); err != nil {
			return i, fmt.Errorf("%w: record %d (%s): %w", ErrUpload, i, rec.Date, err)
		}
	}
	return len(records), nil
}
