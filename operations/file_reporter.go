package operations

import (
	"fmt"
	"sync"

	"github.com/tokenstake/deployments/internal/jsonutils"
)

// FileReporter is a Reporter that keeps reports in memory and writes the full list to a JSON
// file after every AddReport. Reports written by a previous process are loaded on creation,
// which lets an interrupted deployment resume where it stopped.
type FileReporter struct {
	mem  *MemoryReporter
	path string
	mu   sync.Mutex
}

var _ Reporter = (*FileReporter)(nil)

// NewFileReporter creates a FileReporter backed by path. A missing file is treated as an empty
// report list; the parent directory is created on the first write.
func NewFileReporter(path string) (*FileReporter, error) {
	reports, err := readReports(path)
	if err != nil {
		return nil, err
	}

	return &FileReporter{
		mem:  NewMemoryReporter(WithReports(reports)),
		path: path,
	}, nil
}

// Path returns the file the reports are written to.
func (r *FileReporter) Path() string { return r.path }

// GetReport returns a report by ID.
func (r *FileReporter) GetReport(id string) (Report[any, any], error) {
	return r.mem.GetReport(id)
}

// GetReports returns all reports in insertion order.
func (r *FileReporter) GetReports() ([]Report[any, any], error) {
	return r.mem.GetReports()
}

// AddReport appends the report and rewrites the backing file.
func (r *FileReporter) AddReport(report Report[any, any]) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.mem.AddReport(report); err != nil {
		return err
	}

	reports, err := r.mem.GetReports()
	if err != nil {
		return err
	}

	return writeReports(r.path, reports)
}

func readReports(path string) ([]Report[any, any], error) {
	reports, err := jsonutils.LoadFileOrZero[[]Report[any, any]](path)
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	if reports == nil {
		reports = []Report[any, any]{}
	}

	return reports, nil
}

func writeReports(path string, reports []Report[any, any]) error {
	if err := jsonutils.WriteFile(path, reports); err != nil {
		return fmt.Errorf("failed to write reports: %w", err)
	}

	return nil
}
