package media

import "github.com/answerdesk/answerdesk/internal/model"

// Aggregate walks retrieval results in rank order and pools their media
// references, de-duplicated by URL with first-seen-wins ordering. Each
// pooled reference keeps its owning chunk's text as context for step
// matching.
func Aggregate(results []model.RetrievedResult) *model.MediaPool {
	pool := &model.MediaPool{}
	for _, result := range results {
		for _, ref := range result.Chunk.ImageRefs {
			pool.Add(ref, result.Chunk.Text)
		}
		for _, ref := range result.Chunk.VideoRefs {
			pool.Add(ref, result.Chunk.Text)
		}
	}
	return pool
}
