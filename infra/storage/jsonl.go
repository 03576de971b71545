package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/nightwatt/nightwatt/core/model"
	corestorage "github.com/nightwatt/nightwatt/core/storage"
)

// JSONLSessionLog archives finished sessions in a JSONL file.
type JSONLSessionLog struct {
	path string
	mu   sync.Mutex
}

// NewJSONLSessionLog creates the file when missing and returns the log.
func NewJSONLSessionLog(path string) (*JSONLSessionLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if cerr := f.Close(); cerr != nil {
		return nil, cerr
	}
	return &JSONLSessionLog{path: path}, nil
}

func (s *JSONLSessionLog) Append(ctx context.Context, session model.ChargingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	enc := json.NewEncoder(f)
	return enc.Encode(session)
}

func (s *JSONLSessionLog) Query(ctx context.Context, q corestorage.SessionQuery) ([]model.ChargingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var res []model.ChargingSession
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		session, err := model.DecodeSession(scanner.Bytes())
		if err != nil {
			continue
		}
		if !q.Start.IsZero() && session.StartTime.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && session.StartTime.After(q.End) {
			continue
		}
		if q.Result != "" && session.Result != q.Result {
			continue
		}
		res = append(res, session)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *JSONLSessionLog) Close() error { return nil }

// NewSessionLog builds a SessionLog for the configured backend.
func NewSessionLog(backend, path string) (corestorage.SessionLog, error) {
	switch backend {
	case "sqlite":
		return NewSQLiteSessionLog(path)
	case "jsonl", "":
		return NewJSONLSessionLog(path)
	default:
		return nil, fmt.Errorf("unknown session log backend %q", backend)
	}
}
