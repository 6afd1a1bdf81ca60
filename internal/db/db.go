package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"bim-rag/internal/config"
	"bim-rag/internal/index"
)

// IndexChunk is one embedded chunk of a model index
type IndexChunk struct {
	bun.BaseModel `bun:"table:index_chunks,alias:ic"`
	ID            int64           `bun:"id,pk,autoincrement"`
	ModelKey      string          `bun:"model_key,notnull"`
	Position      int             `bun:"position,notnull"`
	BuildID       string          `bun:"build_id,notnull"`
	Content       string          `bun:"content,notnull"`
	Embedding     pgvector.Vector `bun:"embedding,notnull,type:vector"`
	Distance      float32         `bun:"distance,scanonly"`
}

// IndexManifest records the current build of a model index
type IndexManifest struct {
	bun.BaseModel `bun:"table:index_manifests,alias:im"`
	ModelKey      string    `bun:"model_key,pk"`
	BuildID       string    `bun:"build_id,notnull"`
	Fingerprint   string    `bun:"fingerprint"`
	Dimension     int       `bun:"dimension,notnull"`
	BatchSize     int       `bun:"batch_size"`
	ChunkCount    int       `bun:"chunk_count,notnull"`
	BuiltAt       time.Time `bun:"built_at,notnull"`
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

// ConnectDB opens the database with the configured driver, "pgdriver" or "pq"
func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case "pq":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return sqldb, nil
	case "", "pgdriver":
		opts := []pgdriver.Option{pgdriver.WithDSN(cfg.DSN)}
		if cfg.Password != "" {
			opts = append(opts, pgdriver.WithPassword(cfg.Password))
		}
		return sql.OpenDB(pgdriver.NewConnector(opts...)), nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

// InitDB enables pgvector and creates the index tables
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*IndexChunk)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create index_chunks: %w", err)
	}
	if _, err := db.NewCreateTable().Model((*IndexManifest)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create index_manifests: %w", err)
	}
	_, err := db.NewCreateIndex().
		Model((*IndexChunk)(nil)).
		Index("index_chunks_model_key_idx").
		Column("model_key", "position").
		IfNotExists().
		Exec(ctx)
	return err
}

// dropIndexTables removes all stored indexes
func dropIndexTables(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewDropTable().Model((*IndexChunk)(nil)).IfExists().Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewDropTable().Model((*IndexManifest)(nil)).IfExists().Exec(ctx)
	return err
}

// VectorStore keeps model indexes in Postgres and searches them with the
// pgvector L2 operator
type VectorStore struct {
	db *bun.DB
}

func NewVectorStore(db *bun.DB) *VectorStore {
	return &VectorStore{db: db}
}

// Save replaces the chunks and manifest of key in one transaction
func (s *VectorStore) Save(ctx context.Context, key string, manifest index.Manifest, chunks []string, vectors [][]float32) error {
	rows, err := toRows(key, manifest.BuildID, chunks, vectors)
	if err != nil {
		return err
	}
	m := &IndexManifest{
		ModelKey:    key,
		BuildID:     manifest.BuildID,
		Fingerprint: manifest.Fingerprint,
		Dimension:   manifest.Dimension,
		BatchSize:   manifest.BatchSize,
		ChunkCount:  manifest.Count,
		BuiltAt:     manifest.BuiltAt,
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*IndexChunk)(nil)).Where("model_key = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear chunks: %w", err)
		}
		if _, err := tx.NewDelete().Model((*IndexManifest)(nil)).Where("model_key = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear manifest: %w", err)
		}
		if len(rows) > 0 {
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("failed to store chunks: %w", err)
			}
		}
		if _, err := tx.NewInsert().Model(m).Exec(ctx); err != nil {
			return fmt.Errorf("failed to store manifest: %w", err)
		}
		log.Debug().Str("key", key).Int("rows", len(rows)).Msg("Stored index")
		return nil
	})
}

// Delete removes the chunks and manifest of key in one transaction
func (s *VectorStore) Delete(ctx context.Context, key string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*IndexChunk)(nil)).Where("model_key = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if _, err := tx.NewDelete().Model((*IndexManifest)(nil)).Where("model_key = ?", key).Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete manifest: %w", err)
		}
		return nil
	})
}

func (s *VectorStore) Manifest(ctx context.Context, key string) (index.Manifest, error) {
	var m IndexManifest
	err := s.db.NewSelect().Model(&m).Where("model_key = ?", key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return index.Manifest{}, fmt.Errorf("%w: %s", index.ErrIndexNotFound, key)
	}
	if err != nil {
		return index.Manifest{}, fmt.Errorf("failed to load manifest: %w", err)
	}
	return index.Manifest{
		BuildID:     m.BuildID,
		Fingerprint: m.Fingerprint,
		Dimension:   m.Dimension,
		BatchSize:   m.BatchSize,
		Count:       m.ChunkCount,
		BuiltAt:     m.BuiltAt,
	}, nil
}

func (s *VectorStore) Search(ctx context.Context, key string, query []float32, k int) ([]index.Hit, error) {
	manifest, err := s.Manifest(ctx, key)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []index.Hit{}, nil
	}

	vec := pgvector.NewVector(query)
	var rows []IndexChunk
	err = s.db.NewSelect().
		Model(&rows).
		Column("position", "build_id", "content").
		ColumnExpr("embedding <-> ? AS distance", vec).
		Where("model_key = ?", key).
		OrderExpr("embedding <-> ?", vec).
		Limit(k).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	return toHits(manifest.BuildID, rows)
}

func toRows(key, buildID string, chunks []string, vectors [][]float32) ([]IndexChunk, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("%w: %d chunks for %d vectors", index.ErrIndexBuild, len(chunks), len(vectors))
	}
	rows := make([]IndexChunk, len(chunks))
	for i := range chunks {
		rows[i] = IndexChunk{
			ModelKey:  key,
			Position:  i,
			BuildID:   buildID,
			Content:   chunks[i],
			Embedding: pgvector.NewVector(vectors[i]),
		}
	}
	return rows, nil
}

func toHits(buildID string, rows []IndexChunk) ([]index.Hit, error) {
	hits := make([]index.Hit, len(rows))
	for i, r := range rows {
		if r.BuildID != buildID {
			return nil, fmt.Errorf("%w: chunk %d belongs to build %s, manifest %s", index.ErrIndexBuild, r.Position, r.BuildID, buildID)
		}
		hits[i] = index.Hit{Position: r.Position, Content: r.Content, Distance: r.Distance}
	}
	return hits, nil
}
