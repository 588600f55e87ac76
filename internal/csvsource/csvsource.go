// Package csvsource reads and writes the raw tables as CSV files named after the tables.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

const bom = "\ufeff"

type Config struct {
	Dir string `mapstructure:"dir"`
}

// Dir loads <dir>/<table>.csv for each of the five tables.
type Dir struct {
	path string
}

func New(c Config) *Dir {
	return &Dir{path: c.Dir}
}

func (d *Dir) Name() string {
	return "csv:" + d.path
}

// FileName returns the file name of a table.
func FileName(table string) string {
	return table + ".csv"
}

// Load reads every table file. A missing file leaves its table nil.
func (d *Dir) Load(ctx context.Context) (*entity.RawTables, error) {
	raw := &entity.RawTables{}
	for _, name := range entity.TableNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(d.path, FileName(name))
		f, err := os.Open(path)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Default().WarnContext(ctx, "raw table file not found",
				slog.String("table", name),
				slog.String("path", path),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		t, err := ReadTable(f, name)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw.SetTable(name, t)
	}
	return raw, nil
}

// ReadTable parses a CSV stream with a header row. Rows may have fewer or
// more cells than the header. An empty stream yields a table without columns.
func ReadTable(r io.Reader, name string) (*entity.RawTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	t := &entity.RawTable{Name: name}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	t.Header = header

	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		t.Records = append(t.Records, rec)
	}
	return t, nil
}

// WriteTable writes the header and records of t.
func WriteTable(w io.Writer, t *entity.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}
	return nil
}

// WriteDir writes every non-nil table of raw into dir, creating it when needed.
func WriteDir(dir string, raw *entity.RawTables) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, name := range entity.TableNames {
		t := raw.Table(name)
		if t == nil {
			continue
		}
		path := filepath.Join(dir, FileName(name))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := WriteTable(f, t); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
	}
	return nil
}
