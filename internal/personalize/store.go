// Package personalize records which results users pick for which queries
// and turns those captures into personalized ranks for later searches.
package personalize

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	serrors "github.com/Aman-CERP/seekr/internal/errors"
	"github.com/Aman-CERP/seekr/internal/qcontext"
	"github.com/Aman-CERP/seekr/internal/result"
)

// QueryRecord is everything captured for one past query.
type QueryRecord struct {
	// Query is the normalized query text.
	Query string
	// Radius is how many tokens separate Query from the looked-up query.
	Radius int
	// URLs maps canonical URL to click count.
	URLs map[string]int
	// Hosts maps host to click count, summed over URLs.
	Hosts map[string]int
	// Total is the sum of all URL clicks.
	Total int
}

// CaptureStore keeps query and URI captures in SQLite. A file-backed store
// holds an exclusive lock file for its lifetime so only one node writes
// to a capture database.
type CaptureStore struct {
	mu     sync.Mutex
	db     *sql.DB
	path   string
	lock   *flock.Flock
	closed bool
}

// OpenCaptureStore opens (creating if needed) the capture database at
// path. An empty path gives an in-memory store.
func OpenCaptureStore(path string) (*CaptureStore, error) {
	s := &CaptureStore{path: path}

	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, serrors.StorageError("create capture directory", err)
		}
		s.lock = flock.New(path + ".lock")
		ok, err := s.lock.TryLock()
		if err != nil {
			return nil, serrors.StorageError("lock capture database", err)
		}
		if !ok {
			return nil, serrors.New(serrors.ErrCodeStorageLocked,
				fmt.Sprintf("capture database %s is in use by another process", path), nil).
				WithSuggestion("stop the other seekr server or point personalize.db_path elsewhere")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		s.unlock()
		return nil, serrors.StorageError("open capture database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = s.Close()
			return nil, serrors.StorageError("configure capture database", err)
		}
	}
	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, serrors.StorageError("initialize capture schema", err)
	}
	return s, nil
}

func (s *CaptureStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS query_captures (
		query TEXT NOT NULL,
		lang  TEXT NOT NULL,
		url   TEXT NOT NULL,
		hits  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (query, lang, url)
	);

	CREATE TABLE IF NOT EXISTS uri_captures (
		uri  TEXT PRIMARY KEY,
		hits INTEGER NOT NULL DEFAULT 0
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordClick captures that rawURL was picked for query. The URL and its
// host are both counted as URI captures.
func (s *CaptureStore) RecordClick(ctx context.Context, query, lang, rawURL string) error {
	q := qcontext.NormalizeQuery(query)
	if q == "" {
		return serrors.BadParameters("query is empty")
	}
	canonical := result.Canonicalize(rawURL)
	if canonical == "" {
		return serrors.BadParameters("url is empty")
	}
	host := result.Host(rawURL)
	lang = strings.ToLower(strings.TrimSpace(lang))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return serrors.StorageError("capture store is closed", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return serrors.StorageError("begin capture", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO query_captures (query, lang, url, hits) VALUES (?, ?, ?, 1)
		ON CONFLICT (query, lang, url) DO UPDATE SET hits = hits + 1`,
		q, lang, canonical); err != nil {
		return serrors.StorageError("record query capture", err)
	}
	for _, uri := range uniq(canonical, host) {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO uri_captures (uri, hits) VALUES (?, 1)
			ON CONFLICT (uri) DO UPDATE SET hits = hits + 1`, uri); err != nil {
			return serrors.StorageError("record uri capture", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return serrors.StorageError("commit capture", err)
	}

	slog.Debug("capture_recorded",
		slog.String("query", q),
		slog.String("lang", lang),
		slog.String("url", canonical))
	return nil
}

// Related returns the captured queries in lang whose token sets differ
// from query's by at most radius tokens, nearest first.
func (s *CaptureStore) Related(ctx context.Context, query, lang string, radius int) ([]QueryRecord, error) {
	q := qcontext.NormalizeQuery(query)
	if q == "" {
		return nil, nil
	}
	want := strings.Fields(q)
	lang = strings.ToLower(strings.TrimSpace(lang))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, serrors.StorageError("capture store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT query, url, hits FROM query_captures WHERE lang = ? ORDER BY query, url`, lang)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStorageQuery, "query captures", err)
	}
	defer rows.Close()

	byQuery := make(map[string]*QueryRecord)
	var order []string
	for rows.Next() {
		var (
			text, url string
			hits      int
		)
		if err := rows.Scan(&text, &url, &hits); err != nil {
			return nil, serrors.New(serrors.ErrCodeStorageQuery, "scan query capture", err)
		}
		rec, ok := byQuery[text]
		if !ok {
			d := tokenDistance(want, strings.Fields(text))
			if d > radius {
				byQuery[text] = nil
				continue
			}
			rec = &QueryRecord{Query: text, Radius: d, URLs: map[string]int{}, Hosts: map[string]int{}}
			byQuery[text] = rec
			order = append(order, text)
		}
		if rec == nil {
			continue
		}
		rec.URLs[url] += hits
		rec.Hosts[result.Host(url)] += hits
		rec.Total += hits
	}
	if err := rows.Err(); err != nil {
		return nil, serrors.New(serrors.ErrCodeStorageQuery, "iterate query captures", err)
	}

	out := make([]QueryRecord, 0, len(order))
	for _, text := range order {
		out = append(out, *byQuery[text])
	}
	slices.SortStableFunc(out, func(a, b QueryRecord) int { return cmp.Compare(a.Radius, b.Radius) })
	return out, nil
}

// URIHits returns the capture count of a URL or host.
func (s *CaptureStore) URIHits(ctx context.Context, uri string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, serrors.StorageError("capture store is closed", nil)
	}

	var hits int
	err := s.db.QueryRowContext(ctx, `SELECT hits FROM uri_captures WHERE uri = ?`, uri).Scan(&hits)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, serrors.New(serrors.ErrCodeStorageQuery, "uri capture", err)
	}
	return hits, nil
}

// URIs returns every URI capture.
func (s *CaptureStore) URIs(ctx context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, serrors.StorageError("capture store is closed", nil)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT uri, hits FROM uri_captures`)
	if err != nil {
		return nil, serrors.New(serrors.ErrCodeStorageQuery, "uri captures", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			uri  string
			hits int
		)
		if err := rows.Scan(&uri, &hits); err != nil {
			return nil, serrors.New(serrors.ErrCodeStorageQuery, "scan uri capture", err)
		}
		out[uri] = hits
	}
	return out, rows.Err()
}

// TotalURIs returns the number of distinct captured URIs.
func (s *CaptureStore) TotalURIs(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, serrors.StorageError("capture store is closed", nil)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM uri_captures`).Scan(&n); err != nil {
		return 0, serrors.New(serrors.ErrCodeStorageQuery, "count uri captures", err)
	}
	return n, nil
}

// Path returns the database path, empty for in-memory stores.
func (s *CaptureStore) Path() string { return s.path }

// Close closes the database and releases the lock file.
func (s *CaptureStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var err error
	if s.db != nil {
		if s.path != "" {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
		err = s.db.Close()
	}
	s.unlock()
	return err
}

func (s *CaptureStore) unlock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

// tokenDistance counts the tokens present in exactly one of a and b.
func tokenDistance(a, b []string) int {
	in := make(map[string]int, len(a)+len(b))
	for _, t := range a {
		in[t] |= 1
	}
	for _, t := range b {
		in[t] |= 2
	}
	d := 0
	for _, v := range in {
		if v != 3 {
			d++
		}
	}
	return d
}

func uniq(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
