package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"showaudit/internal/services"
)

const recordColumns = "catalog_id, title, folder, confidence, seasons, local_seasons, missing, extra, reported_missing, status, provenance, created_at, updated_at"

// UpsertResult describes what Upsert did. Previous is the row as it was
// before the call, nil when the record was inserted.
type UpsertResult struct {
	Created  bool
	Previous *Record
}

// NeedsReport reports whether current has missing seasons that differ from
// the set last confirmed by MarkReported. A row whose earlier report failed
// still has the old reported set, so it is offered again.
func (u UpsertResult) NeedsReport(current Record) bool {
	if current.Complete() {
		return false
	}
	if u.Created || u.Previous == nil {
		return true
	}
	return !slices.Equal(u.Previous.ReportedMissing, current.Missing)
}

// MarkReported stores missing as the set last written to the report for id.
// Pass nil once a show is complete so a later regression is reported again.
func (s *Store) MarkReported(ctx context.Context, id string, missing []int) error {
	encoded, err := encodeIntList(missing)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "mark reported", id, err)
	}
	res, err := s.execWithRetry(ctx, "UPDATE shows SET reported_missing = ? WHERE catalog_id = ?", encoded, id)
	if err != nil {
		return services.Wrap(services.ErrPersistence, component, "mark reported", id, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return services.Wrap(services.ErrPersistence, component, "mark reported", id, sql.ErrNoRows)
	}
	return nil
}

// RecordExists reports whether a row exists for id.
func (s *Store) RecordExists(ctx context.Context, id string) (bool, error) {
	ctx = ensureContext(ctx)
	var exists int
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx, "SELECT 1 FROM shows WHERE catalog_id = ? LIMIT 1", id).Scan(&exists)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, component, "record exists", id, err)
	}
	return true, nil
}

// Get fetches a record by catalog id. It returns nil, nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM shows WHERE catalog_id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "get", id, err)
	}
	return record, nil
}

// List returns every record ordered by title then catalog id.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT `+recordColumns+` FROM shows ORDER BY title COLLATE NOCASE, catalog_id`)
	if err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "query", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrPersistence, component, "list", "scan", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrPersistence, component, "list", "iterate", err)
	}
	return records, nil
}

// Upsert inserts record or updates the existing row with the same catalog id
// in a single transaction. created_at and reported_missing are preserved on
// update.
func (s *Store) Upsert(ctx context.Context, record Record) (UpsertResult, error) {
	ctx = ensureContext(ctx)
	id := strings.TrimSpace(record.CatalogID)
	if id == "" {
		return UpsertResult{}, services.Wrap(services.ErrPersistence, component, "upsert", "record has no catalog id", nil)
	}

	payload, err := encodeSeasons(record)
	if err != nil {
		return UpsertResult{}, services.Wrap(services.ErrPersistence, component, "upsert", id, err)
	}
	timestamp := s.now().UTC().Format(time.RFC3339Nano)

	var result UpsertResult
	err = retryOnBusy(ctx, func() error {
		result = UpsertResult{}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		previous, err := scanRecord(tx.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM shows WHERE catalog_id = ?`, id))
		switch {
		case errors.Is(err, sql.ErrNoRows):
			result.Created = true
			_, err = tx.ExecContext(ctx,
				`INSERT INTO shows (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, '[]', ?, ?, ?, ?)`,
				id, record.Title, record.Folder, record.Confidence,
				payload.seasons, payload.local, payload.missing, payload.extra,
				nullableString(record.Status), nullableString(record.Provenance),
				timestamp, timestamp,
			)
		case err != nil:
			return err
		default:
			result.Previous = previous
			_, err = tx.ExecContext(ctx,
				`UPDATE shows
                 SET title = ?, folder = ?, confidence = ?, seasons = ?, local_seasons = ?,
                     missing = ?, extra = ?, status = ?, provenance = ?, updated_at = ?
                 WHERE catalog_id = ?`,
				record.Title, record.Folder, record.Confidence,
				payload.seasons, payload.local, payload.missing, payload.extra,
				nullableString(record.Status), nullableString(record.Provenance),
				timestamp, id,
			)
		}
		if err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return UpsertResult{}, services.Wrap(services.ErrPersistence, component, "upsert", id, err)
	}
	return result, nil
}

// Delete removes the record for id and reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM shows WHERE catalog_id = ?", id)
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, component, "delete", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, services.Wrap(services.ErrPersistence, component, "delete", id, err)
	}
	return affected > 0, nil
}

type seasonPayload struct {
	seasons string
	local   string
	missing string
	extra   string
}

func encodeSeasons(record Record) (seasonPayload, error) {
	var payload seasonPayload
	for _, field := range []struct {
		dst    *string
		values []int
	}{
		{&payload.seasons, record.Seasons},
		{&payload.local, record.LocalSeasons},
		{&payload.missing, record.Missing},
		{&payload.extra, record.Extra},
	} {
		encoded, err := encodeIntList(field.values)
		if err != nil {
			return seasonPayload{}, err
		}
		*field.dst = encoded
	}
	return payload, nil
}

func encodeIntList(values []int) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encode seasons: %w", err)
	}
	return string(data), nil
}

func decodeIntList(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var values []int
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decode seasons %q: %w", raw, err)
	}
	return values, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		record     Record
		seasons    string
		local      string
		missing    string
		extra      string
		reported   string
		status     sql.NullString
		provenance sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&record.CatalogID,
		&record.Title,
		&record.Folder,
		&record.Confidence,
		&seasons,
		&local,
		&missing,
		&extra,
		&reported,
		&status,
		&provenance,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	record.Status = status.String
	record.Provenance = provenance.String

	var err error
	if record.Seasons, err = decodeIntList(seasons); err != nil {
		return nil, err
	}
	if record.LocalSeasons, err = decodeIntList(local); err != nil {
		return nil, err
	}
	if record.Missing, err = decodeIntList(missing); err != nil {
		return nil, err
	}
	if record.Extra, err = decodeIntList(extra); err != nil {
		return nil, err
	}
	if record.ReportedMissing, err = decodeIntList(reported); err != nil {
		return nil, err
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return &record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
