package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/serpscope/serpscope/internal/config"
	"github.com/serpscope/serpscope/internal/types"
)

// analysisFile matches serp_<slug>_<timestamp>.json names and captures
// the slug. Raw SERP dumps carry a _raw suffix and are excluded.
var analysisFile = regexp.MustCompile(`^serp_(.+)_\d{8}_\d{6}\.json$`)

var csvHeader = []string{
	"rank", "position", "url", "title", "seo_score", "alt_text_percentage",
	"word_count", "h1_count", "h2_count", "h3_count",
	"internal_links", "external_links", "images", "images_with_alt",
	"schema_count", "page_size_kb", "load_time_ms", "status_code", "error",
}

// FileStore writes analyses to the output directory, one timestamped
// JSON file per run plus an optional CSV with one row per scored page.
type FileStore struct {
	dir     string
	formats []string
	saveRaw bool
	mu      sync.Mutex
	logger  *slog.Logger
}

// NewFileStore creates a FileStore rooted at cfg.OutputDir.
func NewFileStore(cfg *config.StorageConfig, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	formats := cfg.FileFormats
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	return &FileStore{
		dir:     cfg.OutputDir,
		formats: formats,
		saveRaw: cfg.SaveRaw,
		logger:  logger.With("component", "file_storage"),
	}, nil
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) Save(ctx context.Context, a *types.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := fmt.Sprintf("serp_%s_%s", a.Slug(), a.Timestamp.Format("20060102_150405"))

	for _, format := range s.formats {
		switch format {
		case "json":
			if err := s.writeJSON(filepath.Join(s.dir, base+".json"), a); err != nil {
				return &types.StorageError{Backend: "file", Op: "save json", Err: err}
			}
		case "csv":
			if err := s.writeCSV(filepath.Join(s.dir, base+".csv"), a); err != nil {
				return &types.StorageError{Backend: "file", Op: "save csv", Err: err}
			}
		default:
			s.logger.Warn("unknown file format", "format", format)
		}
	}

	if s.saveRaw && len(a.Serp) > 0 {
		if err := s.writeJSON(filepath.Join(s.dir, base+"_raw.json"), a.Serp); err != nil {
			return &types.StorageError{Backend: "file", Op: "save raw", Err: err}
		}
	}

	s.logger.Info("analysis written", "dir", s.dir, "base", base, "formats", s.formats)
	return nil
}

func (s *FileStore) writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (s *FileStore) writeCSV(path string, a *types.Analysis) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for i, r := range a.Results {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.Position),
			r.URL,
			r.Title,
			strconv.Itoa(r.SEOScore),
			strconv.Itoa(r.AltTextPercentage),
			strconv.Itoa(r.WordCount),
			strconv.Itoa(r.H1Count),
			strconv.Itoa(r.H2Count),
			strconv.Itoa(r.H3Count),
			strconv.Itoa(r.InternalLinksCount),
			strconv.Itoa(r.ExternalLinksCount),
			strconv.Itoa(r.ImagesCount),
			strconv.Itoa(r.ImagesWithAltCount),
			strconv.Itoa(r.SchemaCount),
			strconv.FormatFloat(r.PageSizeKB, 'f', 1, 64),
			strconv.FormatInt(r.LoadTimeMS, 10),
			strconv.Itoa(r.StatusCode),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Latest returns the newest stored analysis for the query.
func (s *FileStore) Latest(ctx context.Context, query string) (*types.Analysis, error) {
	files, err := s.filesFor(query)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, types.ErrNotFound
	}
	return s.readAnalysis(files[0])
}

// History returns up to limit stored analyses for the query, newest first.
func (s *FileStore) History(ctx context.Context, query string, limit int) ([]*types.Analysis, error) {
	files, err := s.filesFor(query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	analyses := make([]*types.Analysis, 0, len(files))
	for _, path := range files {
		a, err := s.readAnalysis(path)
		if err != nil {
			s.logger.Warn("skipping unreadable analysis", "path", path, "error", err)
			continue
		}
		analyses = append(analyses, a)
	}
	return analyses, nil
}

// List returns an entry per stored analysis, newest first.
func (s *FileStore) List(ctx context.Context) ([]Entry, error) {
	names, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &types.StorageError{Backend: "file", Op: "list", Err: err}
	}

	var entries []Entry
	for _, de := range names {
		if de.IsDir() || !analysisFile.MatchString(de.Name()) {
			continue
		}
		a, err := s.readAnalysis(filepath.Join(s.dir, de.Name()))
		if err != nil {
			s.logger.Warn("skipping unreadable analysis", "file", de.Name(), "error", err)
			continue
		}
		entries = append(entries, Entry{
			Query:     a.Query,
			Slug:      a.Slug(),
			Timestamp: a.Timestamp,
			Pages:     a.Analyzed,
			AvgScore:  a.Summary.AvgSEOScore,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, nil
}

// filesFor returns the analysis files for a query, newest first. File
// names sort chronologically because the timestamp is zero-padded.
func (s *FileStore) filesFor(query string) ([]string, error) {
	slug := types.SlugifyQuery(query)

	names, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, &types.StorageError{Backend: "file", Op: "list", Err: err}
	}

	var files []string
	for _, de := range names {
		if de.IsDir() {
			continue
		}
		m := analysisFile.FindStringSubmatch(de.Name())
		if m == nil || m[1] != slug {
			continue
		}
		files = append(files, filepath.Join(s.dir, de.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

func (s *FileStore) readAnalysis(path string) (*types.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.StorageError{Backend: "file", Op: "read", Err: err}
	}
	var a types.Analysis
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &types.StorageError{Backend: "file", Op: "decode", Err: err}
	}
	return &a, nil
}
