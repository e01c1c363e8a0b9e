package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/ai"
	"github.com/answerdesk/answerdesk/internal/config"
	"github.com/answerdesk/answerdesk/internal/model"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
	"github.com/answerdesk/answerdesk/internal/vectorstore"
)

const embedCacheTTL = 10 * time.Minute

// Store is the dual search surface the retriever needs from the vector
// store.
type Store interface {
	SemanticSearch(ctx context.Context, vector []float32, k int) ([]vectorstore.ScoredPayload, error)
	LexicalSearch(ctx context.Context, query string, k int) ([]vectorstore.Payload, error)
}

// Retriever fans a query out to semantic and lexical search in parallel
// and fuses the results. The semantic ranking leads; lexical hits missing
// from the semantic block are force-included after it so exact-term
// matches are never dropped, even when their embedding similarity is low.
type Retriever struct {
	embedder      ai.IEmbedder
	store         Store
	topK          int
	searchTimeout time.Duration
	cache         *expirable.LRU[string, []float32]
}

func NewRetriever(embedder ai.IEmbedder, store Store, cfg config.RetrievalConfig) *Retriever {
	return &Retriever{
		embedder:      embedder,
		store:         store,
		topK:          cfg.TopK,
		searchTimeout: time.Duration(cfg.SearchTimeoutSecs) * time.Second,
		cache:         expirable.NewLRU[string, []float32](cfg.EmbedCacheSize, nil, embedCacheTTL),
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]model.RetrievedResult, error) {
	logger := logutil.GetLogger(ctx)

	var (
		wg      sync.WaitGroup
		semHits []vectorstore.ScoredPayload
		semErr  error
		lexHits []vectorstore.Payload
		lexErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		semHits, semErr = r.semanticLeg(ctx, query)
	}()
	go func() {
		defer wg.Done()
		searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()
		lexHits, lexErr = r.store.LexicalSearch(searchCtx, query, r.topK)
	}()
	wg.Wait()

	if semErr != nil && lexErr != nil {
		return nil, fmt.Errorf("%w: semantic: %v; lexical: %v", errs.ErrRetrievalUnavailable, semErr, lexErr)
	}
	if semErr != nil {
		logger.Warn("semantic search failed, lexical only", zap.Error(semErr))
	}
	if lexErr != nil {
		logger.Warn("lexical search failed, semantic only", zap.Error(lexErr))
	}

	return r.fuse(query, semHits, lexHits), nil
}

func (r *Retriever) semanticLeg(ctx context.Context, query string) ([]vectorstore.ScoredPayload, error) {
	vector, err := r.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}
	searchCtx, cancel := context.WithTimeout(ctx, r.searchTimeout)
	defer cancel()
	return r.store.SemanticSearch(searchCtx, vector, r.topK)
}

// queryVector embeds the query, memoising recent queries. Users repeat
// and refine the same questions; skipping the embedding round-trip is
// the cheapest latency win in the whole path.
func (r *Retriever) queryVector(ctx context.Context, query string) ([]float32, error) {
	key := strings.ToLower(strings.TrimSpace(query))
	if vector, ok := r.cache.Get(key); ok {
		return vector, nil
	}
	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	r.cache.Add(key, vector)
	return vector, nil
}

// fuse merges the two result sets. The semantic block is truncated to
// topK and keeps its ordering; lexical-only hits are appended after it
// ranked by lexical score, so topK acts as a floor rather than a hard
// cap when exact matches would otherwise be lost.
func (r *Retriever) fuse(query string, semHits []vectorstore.ScoredPayload, lexHits []vectorstore.Payload) []model.RetrievedResult {
	if len(semHits) > r.topK {
		semHits = semHits[:r.topK]
	}
	results := make([]model.RetrievedResult, 0, len(semHits)+len(lexHits))
	seen := make(map[string]struct{}, len(semHits))
	for _, hit := range semHits {
		score := hit.Score
		seen[hit.Payload.Source] = struct{}{}
		results = append(results, model.RetrievedResult{
			Chunk:         chunkFromPayload(hit.Payload),
			SemanticScore: &score,
			FusedScore:    score,
		})
	}

	type lexCandidate struct {
		payload vectorstore.Payload
		score   float64
		order   int
	}
	var candidates []lexCandidate
	for i, hit := range lexHits {
		if _, ok := seen[hit.Source]; ok {
			continue
		}
		seen[hit.Source] = struct{}{}
		candidates = append(candidates, lexCandidate{payload: hit, score: lexicalScore(query, hit.Text), order: i})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	for _, c := range candidates {
		score := c.score
		results = append(results, model.RetrievedResult{
			Chunk:        chunkFromPayload(c.payload),
			LexicalScore: &score,
			FusedScore:   score,
		})
	}

	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// lexicalScore is the fraction of query terms present in the chunk text.
// The scroll API carries no relevance score, so the retriever derives
// one good enough to order force-included hits.
func lexicalScore(query, text string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func chunkFromPayload(p vectorstore.Payload) model.Chunk {
	chunk := model.Chunk{
		Text:      p.Text,
		Source:    p.Source,
		SourceDoc: p.SourceDoc,
	}
	for _, url := range p.ImageURLs {
		chunk.ImageRefs = append(chunk.ImageRefs, model.MediaRefFromURL(url, model.MediaKindImage))
	}
	for _, url := range p.VideoURLs {
		chunk.VideoRefs = append(chunk.VideoRefs, model.MediaRefFromURL(url, model.MediaKindVideo))
	}
	return chunk
}
