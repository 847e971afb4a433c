package usecase

import (
	"context"
	"testing"

	"lexrag/internal/adapter/cache"
	"lexrag/internal/adapter/embedding"
	"lexrag/internal/adapter/index"
	"lexrag/internal/domain"
)

func newTestIndex(t *testing.T, metas []domain.VectorMeta) *index.Index {
	t.Helper()
	ix, err := index.New(testDim)
	if err != nil {
		t.Fatal(err)
	}
	embedder := embedding.NewMockEmbedder(testDim)
	texts := make([]string, len(metas))
	for i, m := range metas {
		texts[i] = m.Text
	}
	vectors, err := embedder.Embed(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if err := ix.Add(vectors, metas); err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestRetrieveReturnsRankedPassages(t *testing.T) {
	ix := newTestIndex(t, []domain.VectorMeta{
		{DocID: "d1", ChunkID: "c1", Title: "Lease", Year: 2019, Text: "rent is payable monthly in advance"},
		{DocID: "d2", ChunkID: "c2", Title: "NDA", Year: 2021, Text: "confidential information stays protected"},
	})
	uc := NewRetrieveUseCase(embedding.NewMockEmbedder(testDim), ix, nil, nil)

	passages := uc.Retrieve(context.Background(), "rent is payable monthly in advance", 2, nil)
	if len(passages) != 2 {
		t.Fatalf("expected 2 passages, got %d", len(passages))
	}
	if passages[0].ChunkID != "c1" {
		t.Errorf("expected the matching chunk first, got %s", passages[0].ChunkID)
	}
	if passages[0].Score < passages[1].Score {
		t.Error("passages not in descending score order")
	}
	if passages[0].Year != "2019" {
		t.Errorf("expected year 2019, got %s", passages[0].Year)
	}
}

func TestRetrievePassageDefaults(t *testing.T) {
	ix := newTestIndex(t, []domain.VectorMeta{
		{DocID: "d1", ChunkID: "c1", Text: "untitled and undated content"},
	})
	uc := NewRetrieveUseCase(embedding.NewMockEmbedder(testDim), ix, nil, nil)

	passages := uc.Retrieve(context.Background(), "untitled and undated content", 1, nil)
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	p := passages[0]
	if p.Title != "Untitled" {
		t.Errorf("expected default title, got %q", p.Title)
	}
	if p.CaseName != "Unknown" {
		t.Errorf("expected default case name, got %q", p.CaseName)
	}
	if p.Year != "n.d." {
		t.Errorf("expected default year, got %q", p.Year)
	}
}

func TestRetrieveEmptyIndex(t *testing.T) {
	ix, err := index.New(testDim)
	if err != nil {
		t.Fatal(err)
	}
	uc := NewRetrieveUseCase(embedding.NewMockEmbedder(testDim), ix, nil, nil)

	passages := uc.Retrieve(context.Background(), "anything", 5, nil)
	if passages == nil {
		t.Fatal("expected empty slice, not nil")
	}
	if len(passages) != 0 {
		t.Errorf("expected no passages, got %d", len(passages))
	}
}

func TestRetrieveEmbedderFailureDegradesToEmpty(t *testing.T) {
	ix := newTestIndex(t, []domain.VectorMeta{
		{DocID: "d1", ChunkID: "c1", Text: "some indexed content here"},
	})
	uc := NewRetrieveUseCase(&failingEmbedder{}, ix, nil, nil)

	passages := uc.Retrieve(context.Background(), "query", 5, nil)
	if len(passages) != 0 {
		t.Errorf("expected empty result on embedder failure, got %d", len(passages))
	}
}

func TestRetrieveAppliesFilter(t *testing.T) {
	ix := newTestIndex(t, []domain.VectorMeta{
		{DocID: "d1", ChunkID: "us", Jurisdiction: "US", Year: 2015, Text: "governing law clause text"},
		{DocID: "d2", ChunkID: "eu", Jurisdiction: "EU", Year: 2015, Text: "governing law clause text"},
	})
	uc := NewRetrieveUseCase(embedding.NewMockEmbedder(testDim), ix, nil, nil)

	passages := uc.Retrieve(context.Background(), "governing law clause text", 5, &domain.Filter{Jurisdiction: "EU"})
	if len(passages) != 1 {
		t.Fatalf("expected 1 passage, got %d", len(passages))
	}
	if passages[0].ChunkID != "eu" {
		t.Errorf("expected the EU chunk, got %s", passages[0].ChunkID)
	}
}

func TestRetrieveUsesQueryCache(t *testing.T) {
	ix := newTestIndex(t, []domain.VectorMeta{
		{DocID: "d1", ChunkID: "c1", Text: "cached query target text"},
	})
	embedder := &countingEmbedder{inner: embedding.NewMockEmbedder(testDim)}
	c := cache.NewEmbeddingCache(10, 0)
	uc := NewRetrieveUseCase(embedder, ix, c, nil)

	uc.Retrieve(context.Background(), "cached query target text", 1, nil)
	uc.Retrieve(context.Background(), "cached query target text", 1, nil)

	if embedder.calls != 1 {
		t.Errorf("expected 1 provider call with a warm cache, got %d", embedder.calls)
	}
}

type countingEmbedder struct {
	inner *embedding.MockEmbedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, texts)
}

func (c *countingEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.EmbedOne(ctx, text)
}

func (c *countingEmbedder) Dimension() int { return c.inner.Dimension() }

func (c *countingEmbedder) ModelName() string { return c.inner.ModelName() }
