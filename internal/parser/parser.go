package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"bim-rag/internal/config"
	"bim-rag/internal/ifc"
	"bim-rag/internal/models"
)

// ElementSource yields the elements of a canonical type in model order
type ElementSource interface {
	ElementsOf(t ifc.ElementType) []*ifc.Element
}

const (
	defaultBatchSize = 10
)

// ParseModel textualizes the model's elements into chunks of at most
// cfg.RAG.BatchSize elements, one type at a time in ifc.ElementTypes order.
// The result depends only on the model and the batch size.
func ParseModel(model ElementSource, cfg *config.Config) []models.Chunk {
	batchSize := defaultBatchSize
	if cfg != nil && cfg.RAG.BatchSize > 0 {
		batchSize = cfg.RAG.BatchSize
	}

	var chunks []models.Chunk
	for _, tag := range ifc.ElementTypes {
		elements := model.ElementsOf(tag)
		for start, batch := 0, 0; start < len(elements); start, batch = start+batchSize, batch+1 {
			end := min(start+batchSize, len(elements))

			texts := make([]string, 0, end-start)
			for _, el := range elements[start:end] {
				texts = append(texts, Textualize(tag, el))
			}

			chunks = append(chunks, models.Chunk{
				Content:     strings.Join(texts, models.ContextSeparator),
				ElementType: string(tag),
				Batch:       batch,
				ChunkID:     len(chunks),
			})
		}
	}

	log.Debug().Int("chunks", len(chunks)).Int("batch_size", batchSize).Msg("Extracted model chunks")
	return chunks
}

// Textualize renders an element as a "<Tag> <GlobalId>" header followed by
// one "name: value" line per scalar attribute. References, lists and absent
// values are left out.
func Textualize(tag ifc.ElementType, el *ifc.Element) string {
	var props []string
	for _, attr := range el.Attributes() {
		if !attr.Value.IsScalar() {
			continue
		}
		props = append(props, attr.Name+": "+attr.Value.String())
	}
	return fmt.Sprintf("%s %s\n", tag, el.GlobalID()) + strings.Join(props, "\n")
}
