package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"form_filler/domain/entities"
	"form_filler/domain/interfaces"

	jsoniter "github.com/json-iterator/go"
)

const (
	appDir       = ".form_filler"
	reportsDir   = "runs"
	stateFile    = "browser_state.json"
	reportSuffix = ".json"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type runStore struct {
	baseDir    string
	reportsDir string
}

// DefaultDir returns ~/.form_filler, or ./.form_filler when the home directory is unknown.
func DefaultDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDir)
}

// DefaultStatePath is where the browser storage state is kept between runs.
func DefaultStatePath() string {
	return filepath.Join(DefaultDir(), stateFile)
}

// NewRunStore - creates run report storage rooted at baseDir ("" uses DefaultDir)
func NewRunStore(baseDir string) (interfaces.Storage, error) {
	if baseDir == "" {
		baseDir = DefaultDir()
	}
	dir := filepath.Join(baseDir, reportsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &runStore{baseDir: baseDir, reportsDir: dir}, nil
}

// SaveReport - writes the report atomically and returns its path
func (s *runStore) SaveReport(report *entities.Report) (string, error) {
	if report.ID == "" {
		return "", errors.New("report has no id")
	}
	if err := checkID(report.ID); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	path := s.reportPath(report.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// LoadReport - reads a report by run id
func (s *runStore) LoadReport(id string) (*entities.Report, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.reportPath(id))
	if err != nil {
		return nil, err
	}

	var report entities.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", id, err)
	}
	return &report, nil
}

// LatestReport - returns the newest report, nil when none were written yet
func (s *runStore) LatestReport() (*entities.Report, error) {
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		id      string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), reportSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			id:      strings.TrimSuffix(e.Name(), reportSuffix),
			modTime: info.ModTime().UnixNano(),
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})
	return s.LoadReport(candidates[0].id)
}

// checkID rejects ids that would resolve outside the reports directory.
func checkID(id string) error {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("invalid run id %q", id)
	}
	return nil
}

func (s *runStore) reportPath(id string) string {
	return filepath.Join(s.reportsDir, id+reportSuffix)
}
