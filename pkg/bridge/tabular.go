package bridge

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	// SQLite driver
	_ "modernc.org/sqlite"
)

// Connect validates that the backing file exists, stores it as the Session
// target, and opens the tabular connection. A previous target's handles are
// released first.
func (s *Session) Connect(ctx context.Context, path string) error {
	if path == "" {
		return NewPreconditionError("database path is required")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return NewPreconditionError(fmt.Sprintf("database file not found: %s", path))
		}
		return NewFailureError("failed to stat database file", err)
	}

	// Reconnecting to the current target keeps the open handle; a second
	// open would leave two live tabular connections.
	if s.path == path && s.db != nil {
		s.log.WithTarget(path).Debug("already connected")
		return nil
	}
	if s.path != "" && s.path != path {
		if err := s.Disconnect(ctx); err != nil {
			s.log.WithError(err).Warn("failed to release previous target")
		}
	}

	s.path = path
	if err := s.openTabular(ctx); err != nil {
		s.path = ""
		return err
	}

	s.log.WithTarget(path).Info("connected")
	return nil
}

// Disconnect closes the tabular connection, shuts down the automation engine
// if one exists, and clears the Session target.
func (s *Session) Disconnect(ctx context.Context) error {
	err := s.closeTabular()
	if s.engine != nil {
		s.resetEngine(ctx, "disconnect")
	}
	s.path = ""
	s.restorePending = false

	s.log.Info("disconnected")
	return err
}

// EnsureTabular returns the live tabular connection, reopening it from the
// stored target path when necessary (including after an arbitration release).
func (s *Session) EnsureTabular(ctx context.Context) (*sql.DB, error) {
	if s.path == "" {
		return nil, NewPreconditionError("no database connected")
	}
	if s.db != nil {
		return s.db, nil
	}
	if err := s.openTabular(ctx); err != nil {
		return nil, err
	}
	s.metrics.RecordTabularReopen("lazy")
	return s.db, nil
}

// openTabular opens the tabular connection against the Session target. When
// the first open fails with a recognized lock condition, the automation
// engine's exclusive hold is force-released and the open is retried once.
func (s *Session) openTabular(ctx context.Context) error {
	dial := s.dialTabular
	if dial == nil {
		dial = s.openTabularHandle
	}

	db, err := dial(ctx)
	if err == nil {
		s.db = db
		return nil
	}

	if s.classifier == nil || !s.classifier.Recoverable(err) || !s.engineExclusive {
		return NewFailureError("failed to open tabular connection", err)
	}

	// The engine holds the file exclusively; yield it and try again.
	s.log.WithTarget(s.path).Warn("tabular open blocked by exclusive hold, releasing engine")
	if cerr := s.engine.CloseDatabase(ctx); cerr != nil {
		s.log.WithError(cerr).Warn("failed to release exclusive hold")
	}
	s.enginePath = ""
	s.engineExclusive = false

	db, err = dial(ctx)
	if err != nil {
		return NewFailureError("failed to open tabular connection after release", err)
	}
	s.db = db
	return nil
}

// openTabularHandle opens and pings a database/sql handle for the target.
func (s *Session) openTabularHandle(ctx context.Context) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One live handle; the Session is single-threaded.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// closeTabular closes the tabular connection if it is open.
func (s *Session) closeTabular() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return NewFailureError("failed to close tabular connection", err)
	}
	return nil
}

// Query executes a row-returning statement over the tabular connection and
// captures up to maxRows rows. maxRows <= 0 means no cap.
func (s *Session) Query(ctx context.Context, query string, maxRows int) (*Rowset, error) {
	if query == "" {
		return nil, NewPreconditionError("query text is required")
	}
	db, err := s.EnsureTabular(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewFailureError("query failed", err)
	}
	defer rows.Close()

	rs, err := scanRowset(rows, maxRows)
	if err != nil {
		return nil, NewFailureError("failed to read query results", err)
	}
	return rs, nil
}

// Exec executes a non-row-returning statement over the tabular connection
// and returns the number of affected rows.
func (s *Session) Exec(ctx context.Context, query string) (int64, error) {
	if query == "" {
		return 0, NewPreconditionError("query text is required")
	}
	db, err := s.EnsureTabular(ctx)
	if err != nil {
		return 0, err
	}

	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, NewFailureError("statement failed", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, NewFailureError("failed to read affected row count", err)
	}
	return affected, nil
}

// ListTables enumerates the user tables of the backing file.
func (s *Session) ListTables(ctx context.Context) ([]string, error) {
	rs, err := s.Query(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name", 0)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row) > 0 {
			names = append(names, row[0])
		}
	}
	return names, nil
}

// DescribeTable returns the column metadata of a table.
func (s *Session) DescribeTable(ctx context.Context, table string) (*Rowset, error) {
	if table == "" {
		return nil, NewPreconditionError("table name is required")
	}
	return s.Query(ctx, fmt.Sprintf("PRAGMA table_info(%q)", table), 0)
}
