package models

// Chunk is one batch of textualized elements of a single type.
// ChunkID is its position in the extracted sequence.
type Chunk struct {
	Content     string
	ElementType string
	Batch       int
	ChunkID     int
}

// PromptResponse is the answer to one question together with the strategy that produced it
type PromptResponse struct {
	Query   string
	Source  string
	Content string
}

// Contents returns the chunk texts in order
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
