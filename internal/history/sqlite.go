package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/neuroair-core/internal/command"
	"github.com/nerrad567/neuroair-core/internal/scent"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// timeLayout is fixed-width so created_at sorts lexically.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteRepository implements Repository on the dispatch_history table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Record inserts a dispatch record.
func (r *SQLiteRepository) Record(ctx context.Context, rec *Record) error {
	if rec.DeviceID == "" || rec.Stage == "" {
		return fmt.Errorf("%w: device_id and stage are required", ErrInvalidRecord)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = r.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()

	actions := rec.Actions
	if actions == nil {
		actions = []command.Action{}
	}
	actionsJSON, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("marshalling actions: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO dispatch_history (
			id, device_id, source, text, emotion, confidence, stage, handled,
			trigger_phrase, actions, powered_on, profile, intensity, error, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.DeviceID,
		rec.Source,
		rec.Text,
		string(rec.Emotion),
		rec.Confidence,
		rec.Stage,
		boolToInt(rec.Handled),
		rec.Trigger,
		string(actionsJSON),
		boolToInt(rec.State.PoweredOn),
		rec.State.ActiveProfile,
		rec.State.Intensity,
		rec.Error,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting dispatch record: %w", err)
	}
	return nil
}

// List returns recent records for a device, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Device identifier
//   - limit: Maximum entries to return (default 50, max 200)
//
// Returns:
//   - []Record: Records ordered by created_at DESC (may be empty)
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) List(ctx context.Context, deviceID string, limit int) ([]Record, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidRecord)
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, source, text, emotion, confidence, stage, handled,
		        trigger_phrase, actions, powered_on, profile, intensity, error, created_at
		 FROM dispatch_history
		 WHERE device_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch history: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0, limit)
	for rows.Next() {
		var (
			rec         Record
			emotion     string
			handled     int
			poweredOn   int
			actionsJSON string
			createdAt   string
		)
		if err := rows.Scan(
			&rec.ID, &rec.DeviceID, &rec.Source, &rec.Text, &emotion, &rec.Confidence,
			&rec.Stage, &handled, &rec.Trigger, &actionsJSON, &poweredOn,
			&rec.State.ActiveProfile, &rec.State.Intensity, &rec.Error, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning dispatch record: %w", err)
		}

		if err := json.Unmarshal([]byte(actionsJSON), &rec.Actions); err != nil {
			return nil, fmt.Errorf("unmarshalling actions: %w", err)
		}
		rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		rec.Emotion = scent.ParseEmotion(emotion)
		rec.Handled = handled != 0
		rec.State.PoweredOn = poweredOn != 0

		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dispatch history: %w", err)
	}

	return records, nil
}

// Prune deletes records older than olderThan and returns how many were
// removed.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := r.now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM dispatch_history WHERE created_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting dispatch history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
