package bucket

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"

	"github.com/jekabolt/grbpwr-analytics/internal/csvsource"
	"github.com/jekabolt/grbpwr-analytics/internal/dependency"
	"github.com/jekabolt/grbpwr-analytics/internal/entity"
)

// Source loads the raw tables from <folder>/<table>.csv objects.
type Source struct {
	objects dependency.ObjectGetter
	folder  string
	name    string
}

func NewSource(objects dependency.ObjectGetter, bucketName, folder string) *Source {
	return &Source{
		objects: objects,
		folder:  folder,
		name:    "bucket:" + path.Join(bucketName, folder),
	}
}

func (s *Source) Name() string {
	return s.name
}

// Load reads every table object. A missing object leaves its table nil.
func (s *Source) Load(ctx context.Context) (*entity.RawTables, error) {
	raw := &entity.RawTables{}
	for _, name := range entity.TableNames {
		key := path.Join(s.folder, csvsource.FileName(name))
		rc, err := s.objects.GetObject(ctx, key)
		if errors.Is(err, fs.ErrNotExist) {
			slog.Default().WarnContext(ctx, "raw table object not found",
				slog.String("table", name),
				slog.String("key", key),
			)
			continue
		}
		if err != nil {
			return nil, err
		}
		t, err := csvsource.ReadTable(rc, name)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read object %s: %w", key, err)
		}
		raw.SetTable(name, t)
	}
	return raw, nil
}
