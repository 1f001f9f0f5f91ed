package exportstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	devenv "github.com/vcslav-v/pb-admin/dev/env"
	"github.com/vcslav-v/pb-admin/lib/exportstore/db"
	"github.com/vcslav-v/pb-admin/lib/nova"
	"github.com/vcslav-v/pb-admin/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = telemetry.Tracer("pbadmin.lib.exportstore")

// Config points at either a local sqlite file or a remote libsql
// database. URL takes precedence.
type Config struct {
	File      string `json:"file"`
	URL       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (config Config) OpenDB() (*sql.DB, error) {
	if config.URL != "" {
		values := url.Values{}
		if config.AuthToken != "" {
			values.Add("authToken", config.AuthToken)
		}
		return sql.Open("libsql", config.URL+"?"+values.Encode())
	}

	if config.File == "" {
		return nil, fmt.Errorf("neither a file nor a url was specified")
	}
	dbpath, err := devenv.ResolvePath(config.File)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(dbpath)
	if os.IsNotExist(statErr) {
		f, err := os.Create(dbpath)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	database, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	database.SetMaxOpenConns(1)
	_, err = database.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

// Open opens the database of config and creates the tables when missing.
func Open(ctx context.Context, config Config) (Store, error) {
	database, err := config.OpenDB()
	if err != nil {
		return Store{}, err
	}
	store := NewStore(database)
	err = store.Migrate(ctx)
	if err != nil {
		database.Close()
		return Store{}, err
	}
	return store, nil
}

func (s Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, db.Schema)
	return err
}

func (s Store) Close() error {
	return s.db.Close()
}

type Record struct {
	ID    int
	Title string
	Data  any
}

// Run describes one export of a resource.
type Run struct {
	Resource   string
	StartedAt  time.Time
	FinishedAt time.Time
	Count      int
	Skipped    int
}

// Replace swaps every stored record of run.Resource for records and
// records the run, in one transaction.
func (s Store) Replace(ctx context.Context, run Run, records []Record) error {
	ctx, span := tracer.Start(ctx, "Replace")
	defer span.End()

	span.SetAttributes(
		attribute.String("resource", run.Resource),
		attribute.Int("count", len(records)),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, "delete from Record where resource = ?", run.Resource)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clear records")
		return err
	}

	exportedAt := run.FinishedAt.Unix()
	for _, rec := range records {
		data, err := json.Marshal(rec.Data)
		if err != nil {
			return fmt.Errorf("%s %d: %w", run.Resource, rec.ID, err)
		}
		_, err = tx.ExecContext(
			ctx,
			"insert into Record (resource, id, title, data, exported_at) values (?, ?, ?, ?, ?)",
			run.Resource, rec.ID, rec.Title, string(data), exportedAt,
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert record")
			return err
		}
	}

	_, err = tx.ExecContext(
		ctx,
		"insert into Export (resource, started_at, finished_at, count, skipped) values (?, ?, ?, ?, ?)",
		run.Resource, run.StartedAt.Unix(), exportedAt, run.Count, run.Skipped,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record export")
		return err
	}
	return tx.Commit()
}

// LastRun is the most recent export of resource, ok is false when it was
// never exported.
func (s Store) LastRun(ctx context.Context, resource string) (run Run, ok bool, err error) {
	var started, finished int64
	err = s.db.QueryRowContext(
		ctx,
		"select started_at, finished_at, count, skipped from Export where resource = ? order by finished_at desc, id desc limit 1",
		resource,
	).Scan(&started, &finished, &run.Count, &run.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	run.Resource = resource
	run.StartedAt = time.Unix(started, 0)
	run.FinishedAt = time.Unix(finished, 0)
	return run, true, nil
}

// Export stores the items of a listing. Rows the listing skipped are
// counted, not stored.
func Export[T any](ctx context.Context, s Store, resource string, startedAt time.Time, listing nova.Listing[T], describe func(T) (int, string)) (Run, error) {
	records := make([]Record, len(listing.Items))
	for i, item := range listing.Items {
		id, title := describe(item)
		records[i] = Record{ID: id, Title: title, Data: item}
	}
	run := Run{
		Resource:   resource,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
		Count:      len(records),
		Skipped:    len(listing.Skipped),
	}
	err := s.Replace(ctx, run, records)
	if err != nil {
		return Run{}, err
	}
	slog.InfoContext(
		ctx, "exported resource",
		"resource", resource,
		"count", run.Count,
		"skipped", run.Skipped,
	)
	return run, nil
}
