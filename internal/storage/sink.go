package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/spotcrime/internal/metadata"
	"github.com/rohmanhakim/spotcrime/pkg/failure"
	"github.com/rohmanhakim/spotcrime/pkg/fileutil"
	_ "modernc.org/sqlite"
)

/*
Responsibilities
- Own the relational schema (State, Query, CrimeListByTime, CrimeInstanceList)
- Persist states, periods and crime records of a query
- Serve the read side used by the chart, the history command and tests

Output Characteristics
- Rows of one query are scoped by QueryId
- Inserts append; records are never deduplicated
- Recreate operations drop and create a table, leaving it empty
*/

type Sink interface {
	EnsureSchema(ctx context.Context) failure.ClassifiedError
	RecreateStates(ctx context.Context) failure.ClassifiedError
	RecreateCrimeLabels(ctx context.Context) failure.ClassifiedError
	RecreateCrimeRecords(ctx context.Context) failure.ClassifiedError
	UpsertStates(ctx context.Context, states []State) failure.ClassifiedError
	BeginQuery(ctx context.Context, query Query) failure.ClassifiedError
	InsertPeriods(ctx context.Context, queryID string, periods []Period) ([]int64, failure.ClassifiedError)
	InsertRecords(ctx context.Context, queryID string, periodID int64, records []Record) failure.ClassifiedError
	CountRecords(ctx context.Context, queryID string) (int, failure.ClassifiedError)
	PeriodAggregates(ctx context.Context, queryID string) ([]PeriodAggregate, failure.ClassifiedError)
	RecordsForQuery(ctx context.Context, queryID string) ([]Record, failure.ClassifiedError)
	RecentQueries(ctx context.Context, limit int) ([]Query, failure.ClassifiedError)
	Close() error
}

type SQLiteSink struct {
	db           *sql.DB
	path         string
	metadataSink metadata.MetadataSink
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string, metadataSink metadata.MetadataSink) (*SQLiteSink, failure.ClassifiedError) {
	if strings.TrimSpace(path) == "" {
		return nil, &StorageError{Message: "database path is required", Cause: ErrCauseOpenFailure}
	}
	cleanPath := filepath.Clean(path)
	if err := fileutil.EnsureDir(filepath.Dir(cleanPath)); err != nil {
		storageErr := &StorageError{Message: err.Error(), Cause: ErrCauseOpenFailure}
		recordStorageError(metadataSink, "SQLiteSink.Open", cleanPath, storageErr)
		return nil, storageErr
	}

	dsn := cleanPath + "?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		storageErr := &StorageError{Message: fmt.Sprintf("open sqlite db: %v", err), Cause: ErrCauseOpenFailure}
		recordStorageError(metadataSink, "SQLiteSink.Open", cleanPath, storageErr)
		return nil, storageErr
	}
	// single writer; per-query scoping makes concurrent queries safe at this level
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		storageErr := classify(err, ErrCauseOpenFailure, "")
		recordStorageError(metadataSink, "SQLiteSink.Open", cleanPath, storageErr)
		return nil, storageErr
	}

	s := &SQLiteSink{
		db:           db,
		path:         cleanPath,
		metadataSink: metadataSink,
	}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSink) Path() string {
	return s.path
}

// Close closes the SQLite handle.
func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteSink) EnsureSchema(ctx context.Context) failure.ClassifiedError {
	for _, table := range schemaOrder {
		if _, err := s.db.ExecContext(ctx, createTableSQL[table]); err != nil {
			return s.fail("SQLiteSink.EnsureSchema", classify(err, ErrCauseSchemaFailure, table))
		}
	}
	for _, stmt := range strings.Split(createIndexesSQL, ";") {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.fail("SQLiteSink.EnsureSchema", classify(err, ErrCauseSchemaFailure, ""))
		}
	}
	return nil
}

func (s *SQLiteSink) RecreateStates(ctx context.Context) failure.ClassifiedError {
	return s.recreate(ctx, tableState)
}

func (s *SQLiteSink) RecreateCrimeLabels(ctx context.Context) failure.ClassifiedError {
	return s.recreate(ctx, tableCrimeListByTime)
}

func (s *SQLiteSink) RecreateCrimeRecords(ctx context.Context) failure.ClassifiedError {
	return s.recreate(ctx, tableCrimeInstanceList)
}

// RecreateQueries drops the query log. Used by reset alongside the other
// Recreate operations.
func (s *SQLiteSink) RecreateQueries(ctx context.Context) failure.ClassifiedError {
	return s.recreate(ctx, tableQuery)
}

func (s *SQLiteSink) recreate(ctx context.Context, table string) failure.ClassifiedError {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("SQLiteSink.recreate", classify(err, ErrCauseSchemaFailure, table))
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS "`+table+`"`); err != nil {
		return s.fail("SQLiteSink.recreate", classify(err, ErrCauseSchemaFailure, table))
	}
	if _, err := tx.ExecContext(ctx, createTableSQL[table]); err != nil {
		return s.fail("SQLiteSink.recreate", classify(err, ErrCauseSchemaFailure, table))
	}
	if err := tx.Commit(); err != nil {
		return s.fail("SQLiteSink.recreate", classify(err, ErrCauseSchemaFailure, table))
	}
	return nil
}

// UpsertStates writes states keyed by their stable ID.
func (s *SQLiteSink) UpsertStates(ctx context.Context, states []State) failure.ClassifiedError {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("SQLiteSink.UpsertStates", classify(err, ErrCauseWriteFailure, tableState))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO State (Id, State) VALUES (?, ?)
		 ON CONFLICT(Id) DO UPDATE SET State = excluded.State`)
	if err != nil {
		return s.fail("SQLiteSink.UpsertStates", classify(err, ErrCauseWriteFailure, tableState))
	}
	defer stmt.Close()

	for _, state := range states {
		if _, err := stmt.ExecContext(ctx, state.ID, state.Name); err != nil {
			return s.fail("SQLiteSink.UpsertStates", classify(err, ErrCauseWriteFailure, tableState))
		}
	}
	if err := tx.Commit(); err != nil {
		return s.fail("SQLiteSink.UpsertStates", classify(err, ErrCauseWriteFailure, tableState))
	}

	s.recordRows(tableState, len(states))
	return nil
}

func (s *SQLiteSink) BeginQuery(ctx context.Context, query Query) failure.ClassifiedError {
	createdAt := query.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO "Query" (Id, State, City, InfoType, Amount, CreatedAt) VALUES (?, ?, ?, ?, ?, ?)`,
		query.ID,
		query.State,
		query.City,
		query.InfoType,
		query.Amount,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return s.fail("SQLiteSink.BeginQuery", classify(err, ErrCauseWriteFailure, tableQuery))
	}
	return nil
}

// InsertPeriods appends the periods of a query in order and returns their row IDs.
func (s *SQLiteSink) InsertPeriods(ctx context.Context, queryID string, periods []Period) ([]int64, failure.ClassifiedError) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, s.fail("SQLiteSink.InsertPeriods", classify(err, ErrCauseWriteFailure, tableCrimeListByTime))
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(periods))
	for _, period := range periods {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO CrimeListByTime (QueryId, DailyCrime, Link, RecordCount) VALUES (?, ?, ?, ?)`,
			queryID, period.Label, period.Link, period.RecordCount,
		)
		if err != nil {
			return nil, s.fail("SQLiteSink.InsertPeriods", classify(err, ErrCauseWriteFailure, tableCrimeListByTime))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, s.fail("SQLiteSink.InsertPeriods", classify(err, ErrCauseWriteFailure, tableCrimeListByTime))
		}
		ids = append(ids, id)
	}
	if err := tx.Commit(); err != nil {
		return nil, s.fail("SQLiteSink.InsertPeriods", classify(err, ErrCauseWriteFailure, tableCrimeListByTime))
	}

	s.recordRows(tableCrimeListByTime, len(periods))
	return ids, nil
}

// InsertRecords appends the records of one period and updates the period's
// RecordCount by the number of rows written.
func (s *SQLiteSink) InsertRecords(ctx context.Context, queryID string, periodID int64, records []Record) failure.ClassifiedError {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail("SQLiteSink.InsertRecords", classify(err, ErrCauseWriteFailure, tableCrimeInstanceList))
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO CrimeInstanceList (QueryId, PeriodId, Category, Date, Address, Link, StateId)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return s.fail("SQLiteSink.InsertRecords", classify(err, ErrCauseWriteFailure, tableCrimeInstanceList))
	}
	defer stmt.Close()

	for _, record := range records {
		if _, err := stmt.ExecContext(ctx,
			queryID, periodID, record.Category, record.Date, record.Address, record.Link, record.StateID,
		); err != nil {
			return s.fail("SQLiteSink.InsertRecords", classify(err, ErrCauseWriteFailure, tableCrimeInstanceList))
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE CrimeListByTime SET RecordCount = RecordCount + ? WHERE Id = ? AND QueryId = ?`,
		len(records), periodID, queryID,
	); err != nil {
		return s.fail("SQLiteSink.InsertRecords", classify(err, ErrCauseWriteFailure, tableCrimeListByTime))
	}

	if err := tx.Commit(); err != nil {
		return s.fail("SQLiteSink.InsertRecords", classify(err, ErrCauseWriteFailure, tableCrimeInstanceList))
	}

	s.recordRows(tableCrimeInstanceList, len(records))
	return nil
}

func (s *SQLiteSink) CountRecords(ctx context.Context, queryID string) (int, failure.ClassifiedError) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM CrimeInstanceList WHERE QueryId = ?`, queryID,
	).Scan(&count)
	if err != nil {
		return 0, s.fail("SQLiteSink.CountRecords", classify(err, ErrCauseReadFailure, tableCrimeInstanceList))
	}
	return count, nil
}

// PeriodAggregates returns, in insertion order, each period label of the
// query with the number of records stored under it.
func (s *SQLiteSink) PeriodAggregates(ctx context.Context, queryID string) ([]PeriodAggregate, failure.ClassifiedError) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT p.DailyCrime, COUNT(r.Id)
		 FROM CrimeListByTime p
		 LEFT JOIN CrimeInstanceList r ON r.PeriodId = p.Id AND r.QueryId = p.QueryId
		 WHERE p.QueryId = ?
		 GROUP BY p.Id
		 ORDER BY p.Id`, queryID)
	if err != nil {
		return nil, s.fail("SQLiteSink.PeriodAggregates", classify(err, ErrCauseReadFailure, tableCrimeListByTime))
	}
	defer rows.Close()

	var aggregates []PeriodAggregate
	for rows.Next() {
		var agg PeriodAggregate
		if err := rows.Scan(&agg.Label, &agg.Count); err != nil {
			return nil, s.fail("SQLiteSink.PeriodAggregates", classify(err, ErrCauseReadFailure, tableCrimeListByTime))
		}
		aggregates = append(aggregates, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("SQLiteSink.PeriodAggregates", classify(err, ErrCauseReadFailure, tableCrimeListByTime))
	}
	return aggregates, nil
}

func (s *SQLiteSink) RecordsForQuery(ctx context.Context, queryID string) ([]Record, failure.ClassifiedError) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT Id, QueryId, PeriodId, Category, Date, Address, Link, StateId
		 FROM CrimeInstanceList WHERE QueryId = ? ORDER BY Id`, queryID)
	if err != nil {
		return nil, s.fail("SQLiteSink.RecordsForQuery", classify(err, ErrCauseReadFailure, tableCrimeInstanceList))
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.QueryID, &r.PeriodID, &r.Category, &r.Date, &r.Address, &r.Link, &r.StateID); err != nil {
			return nil, s.fail("SQLiteSink.RecordsForQuery", classify(err, ErrCauseReadFailure, tableCrimeInstanceList))
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("SQLiteSink.RecordsForQuery", classify(err, ErrCauseReadFailure, tableCrimeInstanceList))
	}
	return records, nil
}

// RecentQueries returns up to limit queries, newest first.
func (s *SQLiteSink) RecentQueries(ctx context.Context, limit int) ([]Query, failure.ClassifiedError) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT Id, State, City, InfoType, Amount, CreatedAt
		 FROM "Query" ORDER BY CreatedAt DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, s.fail("SQLiteSink.RecentQueries", classify(err, ErrCauseReadFailure, tableQuery))
	}
	defer rows.Close()

	var queries []Query
	for rows.Next() {
		var q Query
		var createdAt string
		if err := rows.Scan(&q.ID, &q.State, &q.City, &q.InfoType, &q.Amount, &createdAt); err != nil {
			return nil, s.fail("SQLiteSink.RecentQueries", classify(err, ErrCauseReadFailure, tableQuery))
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			q.CreatedAt = parsed
		}
		queries = append(queries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("SQLiteSink.RecentQueries", classify(err, ErrCauseReadFailure, tableQuery))
	}
	return queries, nil
}

// StateExists reports whether a State row with the given ID is present.
func (s *SQLiteSink) StateExists(ctx context.Context, stateID string) (bool, failure.ClassifiedError) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM State WHERE Id = ?`, stateID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, s.fail("SQLiteSink.StateExists", classify(err, ErrCauseReadFailure, tableState))
	}
	return true, nil
}

func (s *SQLiteSink) fail(action string, err *StorageError) *StorageError {
	recordStorageError(s.metadataSink, action, s.path, err)
	return err
}

func (s *SQLiteSink) recordRows(table string, rows int) {
	s.metadataSink.RecordArtifact(
		metadata.ArtifactDatabase,
		s.path,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrTable, table),
			metadata.NewIntAttr(metadata.AttrRows, rows),
		},
	)
}

func recordStorageError(sink metadata.MetadataSink, action string, path string, err *StorageError) {
	attrs := []metadata.Attribute{
		metadata.NewAttr(metadata.AttrWritePath, path),
	}
	if err.Table != "" {
		attrs = append(attrs, metadata.NewAttr(metadata.AttrTable, err.Table))
	}
	sink.RecordError(
		time.Now(),
		"storage",
		action,
		mapStorageErrorToMetadataCause(err),
		err.Error(),
		attrs,
	)
}

var _ Sink = (*SQLiteSink)(nil)
