// Package logstore persists an append-only trade journal. Each record
// carries an xxhash checksum so tampering or truncation mid-line is
// detectable on replay.
package logstore

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Store is an append-only journal backed by a single file. Appends are
// serialized and flushed per record; the journal is small and cold
// relative to the polling loop.
type Store struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// Open creates or opens the journal at path in append mode.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open trade journal %s: %w", path, err)
	}
	return &Store{path: path, file: f}, nil
}

// Append writes one record as "<unix_ms> <checksum> <msg>\n". Newlines
// inside msg are flattened so one line stays one record.
func (s *Store) Append(msg string) error {
	msg = strings.ReplaceAll(msg, "\n", " ")
	line := fmt.Sprintf("%d %s %s\n", time.Now().UnixMilli(), checksum(msg), msg)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return fmt.Errorf("trade journal %s is closed", s.path)
	}
	if _, err := s.file.WriteString(line); err != nil {
		return fmt.Errorf("failed to append to trade journal: %w", err)
	}
	return s.file.Sync()
}

// Verify re-reads the journal and reports the first corrupt record, or
// nil when every line checks out.
func (s *Store) Verify() error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open trade journal for verification: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.SplitN(scanner.Text(), " ", 3)
		if len(parts) != 3 {
			return fmt.Errorf("trade journal line %d is malformed", lineNo)
		}
		if checksum(parts[2]) != parts[1] {
			return fmt.Errorf("trade journal line %d fails checksum", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to scan trade journal: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func checksum(msg string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(msg))
}
