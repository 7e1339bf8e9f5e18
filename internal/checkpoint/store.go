// Package checkpoint persists the sync checkpoint of the device agent.
package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"run4recht/internal/stepsync"
)

// Store is a byte key/value store. Get reports found=false for missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Checkpoints keeps one JSON-encoded stepsync.Checkpoint per employee.
type Checkpoints struct {
	Store  Store
	Prefix string
}

func (c Checkpoints) key(employeeID int64) string {
	prefix := c.Prefix
	if strings.TrimSpace(prefix) == "" {
		prefix = "run4recht:checkpoint:"
	}
	return prefix + strconv.FormatInt(employeeID, 10)
}

// Load returns nil when the employee has never synced.
func (c Checkpoints) Load(ctx context.Context, employeeID int64) (*stepsync.Checkpoint, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("checkpoint store not configured")
	}
	b, found, err := c.Store.Get(ctx, c.key(employeeID))
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !found || len(b) == 0 {
		return nil, nil
	}
	var cp stepsync.Checkpoint
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &cp, nil
}

func (c Checkpoints) Save(ctx context.Context, employeeID int64, cp stepsync.Checkpoint) error {
	if c.Store == nil {
		return fmt.Errorf("checkpoint store not configured")
	}
	b, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	if err := c.Store.Set(ctx, c.key(employeeID), b); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Reset forgets the employee's checkpoint; the next sync starts at the tournament start.
func (c Checkpoints) Reset(ctx context.Context, employeeID int64) error {
	if c.Store == nil {
		return nil
	}
	return c.Store.Delete(ctx, c.key(employeeID))
}
