package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"bim-rag/internal/index"
)

const (
	collectionName = "model_chunks"
	indexSuffix    = ".index"
	chunksSuffix   = ".index.chunks"
)

var errExternalEmbeddings = errors.New("embeddings are computed by the caller")

// chunkFile is the ordered chunk sequence stored next to the vector index
type chunkFile struct {
	Manifest index.Manifest `yaml:"manifest"`
	Chunks   []string       `yaml:"chunks"`
}

// VectorDBManager stores one chromem-go collection per model, exported to
// "<model>.index" with the chunk sequence in "<model>.index.chunks".
type VectorDBManager struct {
	dbPath        string
	compress      bool
	encryptionKey string
}

// NewVectorDBManager stores files next to each model when dbPath is empty,
// otherwise in dbPath
func NewVectorDBManager(dbPath string, compress bool, encryptionKey string) (*VectorDBManager, error) {
	if encryptionKey != "" && len(encryptionKey) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(encryptionKey))
	}
	return &VectorDBManager{
		dbPath:        dbPath,
		compress:      compress,
		encryptionKey: encryptionKey,
	}, nil
}

// Paths returns the index and chunk file locations for a model path.
// Compressed indexes carry a ".gz" suffix.
func (m *VectorDBManager) Paths(key string) (string, string) {
	base := key
	if m.dbPath != "" {
		base = filepath.Join(m.dbPath, filepath.Base(key))
	}
	indexPath := base + indexSuffix
	if m.compress {
		indexPath += ".gz"
	}
	return indexPath, base + chunksSuffix
}

// tempPath keeps the extension of path so the exporter sees the same suffix
func tempPath(path, buildID string) string {
	return filepath.Join(filepath.Dir(path), "."+buildID+"-"+filepath.Base(path))
}

func embeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, errExternalEmbeddings
}

// Save writes both files to temporary names and renames them into place
func (m *VectorDBManager) Save(ctx context.Context, key string, manifest index.Manifest, chunks []string, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks for %d vectors", index.ErrIndexBuild, len(chunks), len(vectors))
	}
	indexPath, chunksPath := m.Paths(key)
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("failed to create index folder: %w", err)
	}

	db := chromem.NewDB()
	c, err := db.CreateCollection(collectionName, map[string]string{"build_id": manifest.BuildID}, embeddingFunc)
	if err != nil {
		return fmt.Errorf("failed to create collection: %v", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i := range chunks {
		docs[i] = chromem.Document{
			ID:      strconv.Itoa(i),
			Content: chunks[i],
			Metadata: map[string]string{
				"position": strconv.Itoa(i),
				"build_id": manifest.BuildID,
			},
			Embedding: vectors[i],
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %v", err)
	}

	tmpIndex := tempPath(indexPath, manifest.BuildID)
	tmpChunks := tempPath(chunksPath, manifest.BuildID)
	defer os.Remove(tmpIndex)
	defer os.Remove(tmpChunks)

	if err := db.ExportToFile(tmpIndex, m.compress, m.encryptionKey, collectionName); err != nil {
		return fmt.Errorf("failed to export database: %v", err)
	}
	data, err := yaml.Marshal(chunkFile{Manifest: manifest, Chunks: chunks})
	if err != nil {
		return fmt.Errorf("failed to encode chunks: %w", err)
	}
	if err := os.WriteFile(tmpChunks, data, 0o644); err != nil {
		return fmt.Errorf("failed to write chunks: %w", err)
	}

	if err := os.Rename(tmpIndex, indexPath); err != nil {
		return fmt.Errorf("failed to replace index: %w", err)
	}
	if err := os.Rename(tmpChunks, chunksPath); err != nil {
		return fmt.Errorf("failed to replace chunks: %w", err)
	}

	log.Debug().Str("index", indexPath).Str("chunks", chunksPath).Bool("compress", m.compress).Msg("Exported index")
	return nil
}

func (m *VectorDBManager) readChunks(key string) (chunkFile, error) {
	indexPath, chunksPath := m.Paths(key)
	if _, err := os.Stat(indexPath); errors.Is(err, os.ErrNotExist) {
		return chunkFile{}, fmt.Errorf("%w: %s", index.ErrIndexNotFound, indexPath)
	}

	data, err := os.ReadFile(chunksPath)
	if errors.Is(err, os.ErrNotExist) {
		return chunkFile{}, fmt.Errorf("%w: %s", index.ErrIndexNotFound, chunksPath)
	}
	if err != nil {
		return chunkFile{}, fmt.Errorf("failed to read chunks: %w", err)
	}

	var cf chunkFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return chunkFile{}, fmt.Errorf("%w: corrupt chunk file: %v", index.ErrIndexBuild, err)
	}
	if cf.Manifest.Count != len(cf.Chunks) {
		return chunkFile{}, fmt.Errorf("%w: manifest lists %d chunks, file has %d", index.ErrIndexBuild, cf.Manifest.Count, len(cf.Chunks))
	}
	return cf, nil
}

func (m *VectorDBManager) Manifest(ctx context.Context, key string) (index.Manifest, error) {
	cf, err := m.readChunks(key)
	if err != nil {
		return index.Manifest{}, err
	}
	return cf.Manifest, nil
}

// Search imports the exported collection and returns the k nearest chunks.
// Stored vectors are unit length, so the L2 distance is sqrt(2 - 2*cosine).
func (m *VectorDBManager) Search(ctx context.Context, key string, query []float32, k int) ([]index.Hit, error) {
	cf, err := m.readChunks(key)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return []index.Hit{}, nil
	}
	k = min(k, len(cf.Chunks))

	indexPath, _ := m.Paths(key)
	db := chromem.NewDB()
	if err := db.ImportFromFile(indexPath, m.encryptionKey); err != nil {
		return nil, fmt.Errorf("failed to import database: %v", err)
	}
	c := db.GetCollection(collectionName, embeddingFunc)
	if c == nil {
		return nil, fmt.Errorf("%w: collection missing in %s", index.ErrIndexNotFound, indexPath)
	}
	if c.Count() != len(cf.Chunks) {
		return nil, fmt.Errorf("%w: index holds %d vectors for %d chunks", index.ErrIndexBuild, c.Count(), len(cf.Chunks))
	}

	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: query,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	hits := make([]index.Hit, 0, len(results))
	for _, r := range results {
		if r.Metadata["build_id"] != cf.Manifest.BuildID {
			return nil, fmt.Errorf("%w: index pair mismatch for %s", index.ErrIndexBuild, key)
		}
		pos, err := strconv.Atoi(r.Metadata["position"])
		if err != nil || pos < 0 || pos >= len(cf.Chunks) {
			return nil, fmt.Errorf("%w: invalid position %q", index.ErrIndexBuild, r.Metadata["position"])
		}
		hits = append(hits, index.Hit{
			Position: pos,
			Content:  cf.Chunks[pos],
			Distance: float32(math.Sqrt(math.Max(0, 2-2*float64(r.Similarity)))),
		})
	}
	return hits, nil
}

// Delete removes both index files for key
func (m *VectorDBManager) Delete(ctx context.Context, key string) error {
	indexPath, chunksPath := m.Paths(key)
	for _, p := range []string{indexPath, chunksPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}
