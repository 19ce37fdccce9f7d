package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	_ "modernc.org/sqlite" // database/sql driver

	"github.com/okian/wpr/internal/domain/model"
	"github.com/okian/wpr/internal/domain/types"
	"github.com/okian/wpr/pkg/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// InMemoryDSN opens a private in-memory database.
const InMemoryDSN = ":memory:"

const busyTimeoutMs = 5000

// SQLiteStore persists profiles and their latest snapshots in SQLite. The
// leaderboard index is rebuilt from the table on open and kept in memory.
type SQLiteStore struct {
	db    *sql.DB
	board *leaderboard
	now   func() time.Time

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopChan chan struct{}
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens (or creates) the database at path, applies pending
// migrations and loads the leaderboard.
func OpenSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	if path != InMemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one connection: writes are serialised and :memory: stays a single database
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMs),
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configuring database: %w", err)
		}
	}

	o := newOptions(opts)
	s := &SQLiteStore{
		db:       db,
		board:    newLeaderboard(),
		now:      o.now,
		locks:    make(map[string]*sync.Mutex),
		stopChan: make(chan struct{}),
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := s.loadBoard(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	startMetricsUpdater(ctx, &s.wg, s.stopChan, o.metricsUpdateInterval, s.Count)
	return s, nil
}

// Close stops the metrics goroutine and closes the database.
func (s *SQLiteStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("reading migrations: %w", err)
	}
	// ReadDir returns entries sorted by name
	for _, entry := range entries {
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
		}

		var applied int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&applied); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if applied > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("beginning migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}
	return nil
}

func (s *SQLiteStore) loadBoard(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, "SELECT athlete_id, score, bottleneck FROM profiles")
	if err != nil {
		return fmt.Errorf("loading leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			id, bottleneck string
			score          float64
		)
		if err := rows.Scan(&id, &score, &bottleneck); err != nil {
			return fmt.Errorf("loading leaderboard: %w", err)
		}
		s.board.upsert(id, score, bottleneck)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading leaderboard: %w", err)
	}
	return nil
}

// lock serialises writers of one athlete.
func (s *SQLiteStore) lock(athleteID string) func() {
	s.locksMu.Lock()
	mu, ok := s.locks[athleteID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[athleteID] = mu
	}
	s.locksMu.Unlock()
	mu.Lock()
	return mu.Unlock
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, p *model.Profile) error {
	defer observeUpdate(time.Now())

	if p == nil || p.AthleteID == "" {
		return ErrInvalidID
	}
	unlock := s.lock(p.AthleteID)
	defer unlock()

	cp := p.Clone()
	now := s.now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	profileJSON, snapsJSON, err := encodeRecord(cp, model.Snapshots{})
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (athlete_id, profile, snapshots, score, bottleneck, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(athlete_id) DO NOTHING`,
		cp.AthleteID, profileJSON, snapsJSON, cp.OverallProgressScore, bottleneckName(cp),
		cp.CreatedAt.UTC().Format(time.RFC3339Nano), cp.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", cp.AthleteID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, cp.AthleteID)
	}

	s.board.upsert(cp.AthleteID, cp.OverallProgressScore, bottleneckName(cp))
	metrics.UpdateProfilesTotal(s.board.len())
	return nil
}

func (s *SQLiteStore) load(ctx context.Context, q queryRower, athleteID string) (*model.Profile, model.Snapshots, error) {
	var profileJSON, snapsJSON string
	err := q.QueryRowContext(ctx, "SELECT profile, snapshots FROM profiles WHERE athlete_id = ?", athleteID).
		Scan(&profileJSON, &snapsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, model.Snapshots{}, fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	if err != nil {
		return nil, model.Snapshots{}, fmt.Errorf("select %s: %w", athleteID, err)
	}

	p := &model.Profile{}
	if err := json.Unmarshal([]byte(profileJSON), p); err != nil {
		return nil, model.Snapshots{}, fmt.Errorf("decode profile %s: %w", athleteID, err)
	}
	var snaps model.Snapshots
	if err := json.Unmarshal([]byte(snapsJSON), &snaps); err != nil {
		return nil, model.Snapshots{}, fmt.Errorf("decode snapshots %s: %w", athleteID, err)
	}
	return p, snaps, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func encodeRecord(p *model.Profile, snaps model.Snapshots) (string, string, error) {
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return "", "", fmt.Errorf("encode profile %s: %w", p.AthleteID, err)
	}
	snapsJSON, err := json.Marshal(snaps)
	if err != nil {
		return "", "", fmt.Errorf("encode snapshots %s: %w", p.AthleteID, err)
	}
	return string(profileJSON), string(snapsJSON), nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, athleteID string) (*model.Profile, error) {
	defer observeQuery(time.Now())

	p, _, err := s.load(ctx, s.db, athleteID)
	return p, err
}

// Snapshots implements Store.
func (s *SQLiteStore) Snapshots(ctx context.Context, athleteID string) (model.Snapshots, error) {
	defer observeQuery(time.Now())

	_, snaps, err := s.load(ctx, s.db, athleteID)
	return snaps, err
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, athleteID string, fn UpdateFunc) (*model.Profile, error) {
	defer observeUpdate(time.Now())

	unlock := s.lock(athleteID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", athleteID, err)
	}
	defer func() { _ = tx.Rollback() }()

	p, snaps, err := s.load(ctx, tx, athleteID)
	if err != nil {
		return nil, err
	}
	if err := fn(p, &snaps); err != nil {
		return nil, err
	}
	p.AthleteID = athleteID
	p.UpdatedAt = s.now()

	profileJSON, snapsJSON, err := encodeRecord(p, snaps)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE profiles SET profile = ?, snapshots = ?, score = ?, bottleneck = ?, updated_at = ?
		WHERE athlete_id = ?`,
		profileJSON, snapsJSON, p.OverallProgressScore, bottleneckName(p),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano), athleteID,
	); err != nil {
		return nil, fmt.Errorf("update %s: %w", athleteID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", athleteID, err)
	}

	s.board.upsert(athleteID, p.OverallProgressScore, bottleneckName(p))
	return p.Clone(), nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, athleteID string) error {
	defer observeUpdate(time.Now())

	unlock := s.lock(athleteID)
	defer unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM profiles WHERE athlete_id = ?", athleteID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", athleteID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	s.board.remove(athleteID)
	metrics.UpdateProfilesTotal(s.board.len())
	return nil
}

// IDs implements Store.
func (s *SQLiteStore) IDs(_ context.Context) []string {
	entries := s.board.top(s.board.len())
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.AthleteID
	}
	slices.Sort(ids)
	return ids
}

// Rank implements Store.
func (s *SQLiteStore) Rank(_ context.Context, athleteID string) (types.Entry, error) {
	defer observeQuery(time.Now())

	e, ok := s.board.rank(athleteID)
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, athleteID)
	}
	return e, nil
}

// TopN implements Store.
func (s *SQLiteStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	defer observeQuery(time.Now())

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	return s.board.top(n), nil
}

// Count implements Store.
func (s *SQLiteStore) Count(_ context.Context) int {
	return s.board.len()
}
