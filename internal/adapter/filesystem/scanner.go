// Package filesystem extracts base data files from a local input directory.
package filesystem

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/radar-basedata-etl/internal/domain"
)

// Ledger records which files have been processed.
type Ledger interface {
	Processed(ctx context.Context, path string) (bool, error)
	RecordOutcome(ctx context.Context, file domain.RawFile, outcome domain.Outcome) error
}

// Scanner lists unprocessed files in a directory.
// It implements pipeline.BatchExtractor.
type Scanner struct {
	dir     string
	pattern string
	ledger  Ledger
	logger  *slog.Logger
}

// NewScanner creates a Scanner over the files in dir whose base name matches
// pattern (filepath.Match syntax).
func NewScanner(dir, pattern string, ledger Ledger, logger *slog.Logger) (*Scanner, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("input pattern %q: %w", pattern, err)
	}
	return &Scanner{dir: dir, pattern: pattern, ledger: ledger, logger: logger}, nil
}

// ExtractBatch returns up to batchSize regular files, in name order, that the
// ledger has no outcome for. Hidden files are skipped. Each file's Commit
// records its outcome in the ledger.
func (s *Scanner) ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.dir, err)
	}

	batch := make([]domain.RawFile, 0, min(batchSize, len(entries)))
	for _, e := range entries {
		if len(batch) >= batchSize {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if ok, _ := filepath.Match(s.pattern, name); !ok {
			continue
		}

		path := filepath.Join(s.dir, name)
		done, err := s.ledger.Processed(ctx, path)
		if err != nil {
			return nil, err
		}
		if done {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			s.logger.Debug("skipping vanished file", "file", name, "error", err)
			continue
		}
		batch = append(batch, s.rawFile(path, info))
	}
	return batch, nil
}

func (s *Scanner) rawFile(path string, info os.FileInfo) domain.RawFile {
	f := domain.RawFile{
		Path:    path,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	f.Commit = func(ctx context.Context, outcome domain.Outcome) error {
		return s.ledger.RecordOutcome(ctx, f, outcome)
	}
	return f
}
