package retrieval_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/answerdesk/answerdesk/internal/config"
	errs "github.com/answerdesk/answerdesk/internal/pkg/errors"
	"github.com/answerdesk/answerdesk/internal/retrieval"
	"github.com/answerdesk/answerdesk/internal/vectorstore"
)

type fakeEmbedder struct {
	fail  bool
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embed down")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (f *fakeEmbedder) ModelName() string { return "fake-embed" }

type fakeStore struct {
	semantic []vectorstore.ScoredPayload
	semErr   error
	lexical  []vectorstore.Payload
	lexErr   error
}

func (f *fakeStore) SemanticSearch(ctx context.Context, vector []float32, k int) ([]vectorstore.ScoredPayload, error) {
	return f.semantic, f.semErr
}

func (f *fakeStore) LexicalSearch(ctx context.Context, query string, k int) ([]vectorstore.Payload, error) {
	return f.lexical, f.lexErr
}

func payload(source, text string) vectorstore.Payload {
	return vectorstore.Payload{Text: text, Source: source, SourceDoc: source}
}

func newRetriever(embedder *fakeEmbedder, store *fakeStore, topK int) *retrieval.Retriever {
	return retrieval.NewRetriever(embedder, store, config.RetrievalConfig{
		TopK:              topK,
		SearchTimeoutSecs: 3,
		EmbedCacheSize:    16,
	})
}

func TestRetrieveFusionKeepsLexicalOnlyHits(t *testing.T) {
	store := &fakeStore{
		semantic: []vectorstore.ScoredPayload{
			{Payload: payload("kb/a.html#chunk-1", "alpha content"), Score: 0.9},
			{Payload: payload("kb/b.html#chunk-1", "beta content"), Score: 0.8},
			{Payload: payload("kb/c.html#chunk-1", "gamma content"), Score: 0.7},
		},
		lexical: []vectorstore.Payload{
			payload("kb/c.html#chunk-1", "gamma content"),
			payload("kb/d.html#chunk-1", "error code 42 reference"),
		},
	}
	results, err := newRetriever(&fakeEmbedder{}, store, 3).Retrieve(context.Background(), "error code 42")
	require.NoError(t, err)

	// Semantic block first in score order, then the lexical-only hit:
	// topK is a floor, not a cap, so the exact match survives.
	require.Len(t, results, 4)
	require.Equal(t, "kb/a.html#chunk-1", results[0].Chunk.Source)
	require.Equal(t, "kb/b.html#chunk-1", results[1].Chunk.Source)
	require.Equal(t, "kb/c.html#chunk-1", results[2].Chunk.Source)
	require.Equal(t, "kb/d.html#chunk-1", results[3].Chunk.Source)

	require.NotNil(t, results[0].SemanticScore)
	require.Nil(t, results[0].LexicalScore)
	require.Nil(t, results[3].SemanticScore)
	require.NotNil(t, results[3].LexicalScore)
	require.InDelta(t, 1.0, *results[3].LexicalScore, 1e-9)

	for i, result := range results {
		require.Equal(t, i+1, result.Rank)
	}
}

func TestRetrieveTruncatesSemanticBlockToTopK(t *testing.T) {
	store := &fakeStore{
		semantic: []vectorstore.ScoredPayload{
			{Payload: payload("s1", "one"), Score: 0.9},
			{Payload: payload("s2", "two"), Score: 0.8},
			{Payload: payload("s3", "three"), Score: 0.7},
			{Payload: payload("s4", "four"), Score: 0.6},
		},
	}
	results, err := newRetriever(&fakeEmbedder{}, store, 2).Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "s1", results[0].Chunk.Source)
	require.Equal(t, "s2", results[1].Chunk.Source)
}

func TestRetrieveDegradesToLexicalWhenSemanticFails(t *testing.T) {
	store := &fakeStore{
		semErr: errors.New("qdrant timeout"),
		lexical: []vectorstore.Payload{
			payload("kb/d.txt#chunk-1", "reset your password in settings"),
		},
	}
	results, err := newRetriever(&fakeEmbedder{fail: true}, store, 3).Retrieve(context.Background(), "reset password")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "kb/d.txt#chunk-1", results[0].Chunk.Source)
}

func TestRetrieveBothLegsFailing(t *testing.T) {
	store := &fakeStore{
		semErr: errors.New("down"),
		lexErr: errors.New("down"),
	}
	_, err := newRetriever(&fakeEmbedder{}, store, 3).Retrieve(context.Background(), "query")
	require.ErrorIs(t, err, errs.ErrRetrievalUnavailable)
}

func TestRetrieveCachesQueryEmbedding(t *testing.T) {
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	r := newRetriever(embedder, store, 3)

	_, err := r.Retrieve(context.Background(), "same question")
	require.NoError(t, err)
	_, err = r.Retrieve(context.Background(), "same question")
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)
}

func TestRetrieveRecoversMediaOrigins(t *testing.T) {
	p := payload("kb/x.html#chunk-1", "content")
	p.ImageURLs = []string{"/media/shot.png", "/media/extracted/page.png", "https://cdn.example.com/pic.png"}
	store := &fakeStore{semantic: []vectorstore.ScoredPayload{{Payload: p, Score: 0.5}}}

	results, err := newRetriever(&fakeEmbedder{}, store, 3).Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 1)
	refs := results[0].Chunk.ImageRefs
	require.Len(t, refs, 3)
	require.Equal(t, "local", string(refs[0].Origin))
	require.Equal(t, "extracted", string(refs[1].Origin))
	require.Equal(t, "external", string(refs[2].Origin))
}
