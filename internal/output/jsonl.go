package output

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/gofrs/flock"

	"github.com/torosent/msgsampler/internal/metrics"
)

// JSONLSink appends one compact JSON document per window to a file. Writers
// in other processes sharing the path are serialized through an advisory
// lock on path + ".lock".
type JSONLSink struct {
	mu    sync.Mutex
	path  string
	lock  *flock.Flock
	file  *os.File
	lines int64
}

// NewJSONLSink opens path for appending, creating it if needed.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open jsonl output: %w", err)
	}
	return &JSONLSink{
		path: path,
		lock: flock.New(path + ".lock"),
		file: f,
	}, nil
}

// Path returns the output file path.
func (s *JSONLSink) Path() string { return s.path }

// Lines returns the number of documents written.
func (s *JSONLSink) Lines() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lines
}

// Write appends the snapshot pair as a single line.
func (s *JSONLSink) Write(latency, throughput metrics.Snapshot) error {
	data, err := json.Marshal(reportDocument{Latency: latency, Throughput: throughput})
	if err != nil {
		return fmt.Errorf("encode window: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("jsonl sink closed")
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	defer func() { _ = s.lock.Unlock() }()

	if _, err := s.file.Write(data); err != nil {
		return fmt.Errorf("write jsonl output: %w", err)
	}
	s.lines++
	return nil
}

// Close closes the file. The lock file is left in place for other writers.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
