package api

// ScoredChunk is a stored chunk matched against a query embedding.
type ScoredChunk struct {
	Text  string
	Score float64
}

func (c ScoredChunk) Copy() *ScoredChunk {
	return &ScoredChunk{
		Text:  c.Text,
		Score: c.Score,
	}
}
