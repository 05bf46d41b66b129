package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pders01/pyfinder/internal/models"
	"github.com/spf13/afero"
)

// TimeLayout is the ISO-8601 form written for last_modified
const TimeLayout = "2006-01-02T15:04:05.999999-07:00"

// ErrMissingKey is returned for documents without a python_projects array
var ErrMissingKey = errors.New("missing python_projects key")

var parseLayouts = []string{
	time.RFC3339Nano,
	TimeLayout,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

// Record is the persisted form of a project
type Record struct {
	Path          string   `json:"path" yaml:"path"`
	Name          string   `json:"name" yaml:"name"`
	FileCount     int      `json:"file_count" yaml:"file_count"`
	Size          int64    `json:"size" yaml:"size"`
	LastModified  *string  `json:"last_modified" yaml:"last_modified"`
	PythonFiles   []string `json:"python_files" yaml:"python_files"`
	ProjectFiles  []string `json:"project_files" yaml:"project_files"`
	RealSize      *int64   `json:"real_size,omitempty" yaml:"real_size,omitempty"`
	RealFileCount *int     `json:"real_file_count,omitempty" yaml:"real_file_count,omitempty"`
	FolderHash    string   `json:"folder_hash,omitempty" yaml:"folder_hash,omitempty"`
}

type document struct {
	PythonProjects *[]Record `json:"python_projects"`
}

// ToRecord converts a project for export
func ToRecord(p *models.Project) Record {
	r := Record{
		Path:          p.Path(),
		Name:          p.Name,
		FileCount:     p.FileCount(),
		Size:          p.Size,
		PythonFiles:   append([]string{}, p.SourceFiles...),
		ProjectFiles:  append([]string{}, p.MarkerFiles...),
		RealSize:      p.RealSize,
		RealFileCount: p.RealFileCount,
		FolderHash:    p.FolderHash,
	}
	if p.LastModified != nil {
		ts := p.LastModified.Format(TimeLayout)
		r.LastModified = &ts
	}
	return r
}

// FromRecord rebuilds a project. Fields absent from the record stay unset.
func FromRecord(r Record) (*models.Project, error) {
	if r.Path == "" {
		return nil, fmt.Errorf("project record has no path")
	}

	p := models.NewProject(r.Path)
	if r.Name != "" {
		p.Name = r.Name
	}
	p.Size = r.Size
	p.SourceFiles = append(p.SourceFiles, r.PythonFiles...)
	p.MarkerFiles = append(p.MarkerFiles, r.ProjectFiles...)
	p.FolderHash = r.FolderHash

	if r.RealSize != nil {
		size := *r.RealSize
		p.RealSize = &size
	}
	if r.RealFileCount != nil {
		count := *r.RealFileCount
		p.RealFileCount = &count
	}
	if r.LastModified != nil {
		ts, err := parseTime(*r.LastModified)
		if err != nil {
			return nil, fmt.Errorf("invalid last_modified for %s: %w", r.Path, err)
		}
		p.LastModified = &ts
	}

	p.TagFeatures()
	return p, nil
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range parseLayouts {
		var t time.Time
		if t, err = time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Encode writes projects as an indented python_projects document
func Encode(w io.Writer, projects []*models.Project) error {
	records := make([]Record, 0, len(projects))
	for _, p := range projects {
		records = append(records, ToRecord(p))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(document{PythonProjects: &records}); err != nil {
		return fmt.Errorf("failed to encode projects: %w", err)
	}
	return nil
}

// Decode reads a python_projects document
func Decode(r io.Reader) ([]*models.Project, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	if doc.PythonProjects == nil {
		return nil, ErrMissingKey
	}

	projects := make([]*models.Project, 0, len(*doc.PythonProjects))
	for i, record := range *doc.PythonProjects {
		p, err := FromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// Save writes projects to path, creating parent directories
func Save(fs afero.Fs, path string, projects []*models.Project) error {
	var buf bytes.Buffer
	if err := Encode(&buf, projects); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Load reads projects from path
func Load(fs afero.Fs, path string) ([]*models.Project, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	projects, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return projects, nil
}
