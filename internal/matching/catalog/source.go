package catalog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"career-matching/internal/common/config"
	"career-matching/internal/common/database"
	apperrors "career-matching/internal/common/errors"
	"career-matching/internal/common/logger"
	"career-matching/internal/models"
)

// Source loads the full catalog at request start.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// Writer replaces the stored catalog. Used by the catalog import command.
type Writer interface {
	Replace(ctx context.Context, entries []models.CareerCatalogEntry) (int, error)
}

// Deps are the stores a source may need. Unused fields may be nil.
type Deps struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// NewSource builds the configured source, wrapped in the Redis snapshot cache when a TTL is set.
func NewSource(cfg config.CatalogConfig, deps Deps, log logger.Logger) (Source, error) {
	var src Source
	switch cfg.Source {
	case config.CatalogSourcePostgres, "":
		if deps.Postgres == nil {
			return nil, fmt.Errorf("catalog source postgres requires a database connection")
		}
		pg, err := NewPostgresSource(deps.Postgres, cfg.Table)
		if err != nil {
			return nil, err
		}
		src = pg
	case config.CatalogSourceElasticsearch:
		if deps.Elasticsearch == nil {
			return nil, fmt.Errorf("catalog source elasticsearch requires a client")
		}
		src = NewElasticsearchSource(deps.Elasticsearch, cfg.Index)
	case config.CatalogSourceCSV:
		src = NewCSVSource(cfg.CSVPath)
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}

	if cfg.CacheTTL > 0 && deps.Redis != nil {
		src = NewCachedSource(src, deps.Redis, time.Duration(cfg.CacheTTL)*time.Second, log)
	}
	return src, nil
}

func requireEntries(source string, entries []models.CareerCatalogEntry) (*Snapshot, error) {
	snap := NewSnapshot(source, entries)
	if snap.Len() == 0 {
		return nil, apperrors.NewCatalogEmptyError(source)
	}
	return snap, nil
}

func errNotWritable(source string) error {
	return fmt.Errorf("catalog source %s does not support writes", source)
}

// StaticSource serves a fixed list, for tests and one-off CLI runs.
type StaticSource struct {
	name    string
	entries []models.CareerCatalogEntry
}

func NewStaticSource(name string, entries []models.CareerCatalogEntry) *StaticSource {
	return &StaticSource{name: name, entries: entries}
}

func (s *StaticSource) Name() string { return s.name }

func (s *StaticSource) Load(ctx context.Context) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return requireEntries(s.name, s.entries)
}
