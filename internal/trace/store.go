/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package trace records the raw input of an editor session (pointer and
// keyboard events plus the scene they ran against) and replays it later.
// Traces live in a local SQLite file or in a shared PostgreSQL database.
package trace

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	// PostgreSQL through database/sql
	_ "github.com/jackc/pgx/v5/stdlib"
	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"

	"gosceneeditor/internal/geom"
	"gosceneeditor/internal/handle"
	"gosceneeditor/internal/ids"
	applog "gosceneeditor/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var ErrNotFound = errors.New("trace session not found")

// Kind names a recorded input.
type Kind string

const (
	KindDown Kind = "down"
	KindMove Kind = "move"
	KindUp   Kind = "up"
	KindKey  Kind = "key"
	KindStop Kind = "stop"
	KindTick Kind = "tick"
)

// Event is one recorded input. Pointer kinds use Pos and Modifier, key
// events use Key and Fast.
type Event struct {
	Seq      int
	Kind     Kind
	Pos      geom.Pt
	Modifier bool
	Key      handle.Key
	Fast     bool
}

// Session describes one recording. Scene holds the fixture JSON the
// editor was built from.
type Session struct {
	ID        string
	CreatedAt time.Time
	App       string
	Scene     []byte
}

// Store is an open trace database.
type Store struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

// IsPostgres reports whether dsn addresses a PostgreSQL server.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

// Open connects to dsn and applies pending migrations. A postgres:// URL
// selects the pgx driver; anything else is taken as a SQLite file path.
func Open(ctx context.Context, dsn string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("trace"), "open")
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("trace dsn is required")
	}
	s := &Store{driver: "sqlite", log: applog.WithComponent("trace")}
	var err error
	if IsPostgres(dsn) {
		s.driver = "pgx"
		s.db, err = sql.Open("pgx", dsn)
	} else {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create trace dir: %w", err)
		}
		uri := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", filepath.ToSlash(dsn))
		s.db, err = sql.Open("sqlite", uri)
		if err == nil {
			s.db.SetMaxOpenConns(1)
			s.db.SetMaxIdleConns(1)
		}
	}
	if err != nil {
		l.Error("open failed", slog.String("driver", s.driver), slog.Any("err", err))
		return nil, fmt.Errorf("open trace db: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		_ = s.db.Close()
		l.Error("ping failed", slog.String("driver", s.driver), slog.Any("err", err))
		return nil, fmt.Errorf("ping trace db: %w", err)
	}
	if s.driver == "sqlite" {
		if _, err := s.db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
			_ = s.db.Close()
			return nil, fmt.Errorf("enable WAL: %w", err)
		}
	}
	if err := s.migrate(ctx); err != nil {
		_ = s.db.Close()
		l.Error("migrate failed", slog.Any("err", err))
		return nil, fmt.Errorf("migrate trace db: %w", err)
	}
	l.Debug("trace store ready", slog.String("driver", s.driver))
	return s, nil
}

func (s *Store) Close() error   { return s.db.Close() }
func (s *Store) Driver() string { return s.driver }

// bind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) bind(q string) string {
	if s.driver != "pgx" {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// migrate applies embedded SQL migrations in filename order.
func (s *Store) migrate(ctx context.Context) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := s.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, name := range files {
		v, err := parseVersion(name)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", name))
		if err != nil {
			return err
		}
		if err := s.inTx(ctx, func(tx *sql.Tx) error {
			for _, stmt := range splitStatements(string(b)) {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, s.bind(`INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`),
				v, name, time.Now().UTC().Format(time.RFC3339))
			return err
		}); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
		s.log.Info("applied migration", slog.String("name", name), slog.String("driver", s.driver))
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func parseVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

// splitStatements drops comment lines and splits on semicolons.
func splitStatements(sqlText string) []string {
	var kept []string
	for _, line := range strings.Split(sqlText, "\n") {
		if !strings.HasPrefix(strings.TrimSpace(line), "--") {
			kept = append(kept, line)
		}
	}
	var out []string
	for _, stmt := range strings.Split(strings.Join(kept, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// CreateSession stores sess. An empty ID gets a fresh one; a zero time
// becomes now.
func (s *Store) CreateSession(ctx context.Context, sess Session) (Session, error) {
	if sess.ID == "" {
		sess.ID = ids.NewSessionID()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.bind(`INSERT INTO sessions (id, created_at, app, scene) VALUES (?, ?, ?, ?)`),
		sess.ID, sess.CreatedAt.UTC().Format(time.RFC3339Nano), sess.App, string(sess.Scene))
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// Append stores ev under session id.
func (s *Store) Append(ctx context.Context, id string, ev Event) error {
	_, err := s.db.ExecContext(ctx,
		s.bind(`INSERT INTO events (session_id, seq, kind, x, y, modifier, key_name, fast) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id, ev.Seq, string(ev.Kind), ev.Pos.X, ev.Pos.Y, boolInt(ev.Modifier), keyName(ev), boolInt(ev.Fast))
	if err != nil {
		return fmt.Errorf("append event %d: %w", ev.Seq, err)
	}
	return nil
}

// Sessions lists all sessions, newest first, without their scenes.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, app FROM sessions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []Session
	for rows.Next() {
		var sess Session
		var created string
		if err := rows.Scan(&sess.ID, &created, &sess.App); err != nil {
			return nil, err
		}
		sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, sess)
	}
	return out, rows.Err()
}

// Latest returns the id of the newest session.
func (s *Store) Latest(ctx context.Context) (string, error) {
	list, err := s.Sessions(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", ErrNotFound
	}
	return list[0].ID, nil
}

// Load returns a session with its events in recording order.
func (s *Store) Load(ctx context.Context, id string) (Session, []Event, error) {
	var sess Session
	var created, scene string
	err := s.db.QueryRowContext(ctx, s.bind(`SELECT id, created_at, app, scene FROM sessions WHERE id = ?`), id).
		Scan(&sess.ID, &created, &sess.App, &scene)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, nil, fmt.Errorf("load session: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	sess.Scene = []byte(scene)

	rows, err := s.db.QueryContext(ctx,
		s.bind(`SELECT seq, kind, x, y, modifier, key_name, fast FROM events WHERE session_id = ? ORDER BY seq`), id)
	if err != nil {
		return Session{}, nil, fmt.Errorf("load events: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var events []Event
	for rows.Next() {
		var ev Event
		var kind, key string
		var mod, fast int
		if err := rows.Scan(&ev.Seq, &kind, &ev.Pos.X, &ev.Pos.Y, &mod, &key, &fast); err != nil {
			return Session{}, nil, err
		}
		ev.Kind, ev.Modifier, ev.Fast = Kind(kind), mod != 0, fast != 0
		if ev.Kind == KindKey {
			k, ok := handle.ParseKey(key)
			if !ok {
				return Session{}, nil, fmt.Errorf("event %d: unknown key %q", ev.Seq, key)
			}
			ev.Key = k
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return Session{}, nil, err
	}
	return sess, events, nil
}

// Delete removes a session and its events.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.bind(`DELETE FROM events WHERE session_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, s.bind(`DELETE FROM sessions WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil
	})
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func keyName(ev Event) string {
	if ev.Kind != KindKey {
		return ""
	}
	return ev.Key.String()
}
