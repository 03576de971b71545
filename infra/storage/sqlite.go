package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nightwatt/nightwatt/core/model"
	corestorage "github.com/nightwatt/nightwatt/core/storage"
)

// SQLiteSessionLog archives finished charging sessions in a SQLite database.
type SQLiteSessionLog struct {
	db *sql.DB
}

// NewSQLiteSessionLog opens or creates the database at path and ensures the
// schema.
func NewSQLiteSessionLog(path string) (*SQLiteSessionLog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS charging_sessions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER,
        result TEXT,
        session TEXT
    );`
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLiteSessionLog{db: db}, nil
}

// Append writes the session to the database.
func (s *SQLiteSessionLog) Append(ctx context.Context, session model.ChargingSession) error {
	b, err := session.Encode()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO charging_sessions (ts, result, session) VALUES (?, ?, ?)`,
		session.StartTime.Unix(), session.Result, string(b))
	return err
}

// Query returns sessions matching q, oldest first.
func (s *SQLiteSessionLog) Query(ctx context.Context, q corestorage.SessionQuery) ([]model.ChargingSession, error) {
	var args []any
	query := `SELECT session FROM charging_sessions WHERE 1=1`
	if !q.Start.IsZero() {
		query += ` AND ts >= ?`
		args = append(args, q.Start.Unix())
	}
	if !q.End.IsZero() {
		query += ` AND ts <= ?`
		args = append(args, q.End.Unix())
	}
	if q.Result != "" {
		query += ` AND result = ?`
		args = append(args, q.Result)
	}
	query += ` ORDER BY ts`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []model.ChargingSession
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		session, err := model.DecodeSession([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("unmarshal session: %w", err)
		}
		res = append(res, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLiteSessionLog) Close() error { return s.db.Close() }
