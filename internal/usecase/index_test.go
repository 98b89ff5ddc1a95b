package usecase

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"athleterag/internal/adapter/analyzer"
	"athleterag/internal/adapter/chunker"
	"athleterag/internal/adapter/memstore"
	"athleterag/internal/adapter/vectorindex"
	"athleterag/internal/domain"
	"athleterag/internal/port"
)

// stubEmbedder maps text onto a 3-dimensional vector by counting the
// marker words "alpha" and "beta"; everything else lands in the third
// component. Deterministic and offline.
type stubEmbedder struct {
	dimension int
	fail      bool
	calls     int
}

func newStubEmbedder() *stubEmbedder {
	return &stubEmbedder{dimension: 3}
}

func (e *stubEmbedder) Embed(texts []string) ([][]float32, error) {
	if e.fail {
		return nil, fmt.Errorf("%w: stub transport down", port.ErrEmbeddingUnavailable)
	}
	e.calls++

	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimension)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			switch word {
			case "alpha":
				vec[0]++
			case "beta":
				vec[1]++
			default:
				vec[2]++
			}
		}
		out[i] = vec
	}
	return out, nil
}

func (e *stubEmbedder) Dimension() int { return e.dimension }

func (e *stubEmbedder) ModelName() string { return "stub-model" }

type pipelineEnv struct {
	index    *vectorindex.FlatIndex
	idMap    *vectorindex.IDMap
	meta     *memstore.MemoryStore
	embedder *stubEmbedder
	indexUC  *IndexUseCase
}

func newPipelineEnv(t *testing.T, maxTokens, overlap int) *pipelineEnv {
	t.Helper()

	index, err := vectorindex.NewFlatIndex(3)
	if err != nil {
		t.Fatal(err)
	}
	idMap := vectorindex.NewIDMap()
	meta := memstore.NewMemoryStore()
	embedder := newStubEmbedder()

	chk, err := chunker.NewTokenChunker(maxTokens, overlap, false, analyzer.NewTokenizer())
	if err != nil {
		t.Fatal(err)
	}

	indexUC, err := NewIndexUseCase(index, idMap, meta, embedder, chk, nil)
	if err != nil {
		t.Fatal(err)
	}

	return &pipelineEnv{index: index, idMap: idMap, meta: meta, embedder: embedder, indexUC: indexUC}
}

// markerDoc builds a 250-token document: 100 alpha, 60 beta, 90 alpha.
// With maxTokens=100 overlap=20 this chunks into windows 0-100 (all
// alpha), 80-180 (beta-heavy) and 160-250 (all alpha).
func markerDoc(id string) domain.Document {
	words := make([]string, 0, 250)
	for i := 0; i < 100; i++ {
		words = append(words, "alpha")
	}
	for i := 0; i < 60; i++ {
		words = append(words, "beta")
	}
	for i := 0; i < 90; i++ {
		words = append(words, "alpha")
	}
	return domain.Document{ID: id, Text: strings.Join(words, " ")}
}

func TestIndexDocumentHappyPath(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	stats, err := env.indexUC.IndexDocument(markerDoc("doc1"), "Jakob Ingebrigtsen")
	if err != nil {
		t.Fatal(err)
	}

	if stats.Inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", stats.Inserted)
	}
	if stats.SkippedDuplicate != 0 || stats.Failed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if env.index.Len() != 3 {
		t.Errorf("expected 3 vectors, got %d", env.index.Len())
	}
	if env.idMap.Len() != 3 {
		t.Errorf("expected 3 bindings, got %d", env.idMap.Len())
	}
	if env.embedder.calls != 1 {
		t.Errorf("expected one batched embedding call, got %d", env.embedder.calls)
	}

	// Internal IDs are assigned in chunk order.
	records, err := env.meta.List()
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range records {
		if int(rec.InternalVectorID) != rec.Chunk.ChunkIndex {
			t.Errorf("chunk %d bound to vector %d", rec.Chunk.ChunkIndex, rec.InternalVectorID)
		}
		if rec.EmbeddingModelID != "stub-model" {
			t.Errorf("expected embedding model recorded, got %q", rec.EmbeddingModelID)
		}
	}
}

func TestIndexDocumentIdempotent(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)
	doc := markerDoc("doc1")

	first, err := env.indexUC.IndexDocument(doc, "Athlete")
	if err != nil {
		t.Fatal(err)
	}
	if first.Inserted != 3 {
		t.Fatalf("expected 3 inserted on first pass, got %d", first.Inserted)
	}

	second, err := env.indexUC.IndexDocument(doc, "Athlete")
	if err != nil {
		t.Fatal(err)
	}
	if second.Inserted != 0 {
		t.Errorf("expected 0 inserted on second pass, got %d", second.Inserted)
	}
	if second.SkippedDuplicate != 3 {
		t.Errorf("expected 3 skipped on second pass, got %d", second.SkippedDuplicate)
	}
	if env.index.Len() != 3 {
		t.Errorf("re-indexing must not grow the index, len=%d", env.index.Len())
	}
}

func TestIndexDocumentPerAthleteDedupScope(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)
	doc := markerDoc("doc1")

	if _, err := env.indexUC.IndexDocument(doc, "Athlete A"); err != nil {
		t.Fatal(err)
	}

	// The same passage describing a second athlete indexes again: dedup
	// is scoped per athlete.
	stats, err := env.indexUC.IndexDocument(doc, "Athlete B")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inserted != 3 {
		t.Errorf("expected 3 inserted for second athlete, got %d", stats.Inserted)
	}
}

func TestIndexDocumentEmbeddingFailure(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)
	env.embedder.fail = true

	stats, err := env.indexUC.IndexDocument(markerDoc("doc1"), "Athlete")
	if !errors.Is(err, port.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if stats.Failed != 3 {
		t.Errorf("expected 3 failed, got %d", stats.Failed)
	}
	if env.index.Len() != 0 {
		t.Errorf("nothing should be inserted, len=%d", env.index.Len())
	}
}

func TestProcessAllEmptySet(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	stats, err := env.indexUC.ProcessAll(nil, "Athlete")
	if err != nil {
		t.Fatal(err)
	}
	if stats != (domain.IndexingStats{}) {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestProcessAllContinuesPastFailures(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	docs := []domain.Document{
		{ID: "empty", Text: "   "},
		markerDoc("doc1"),
	}
	stats, err := env.indexUC.ProcessAll(docs, "Athlete")
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inserted != 3 {
		t.Errorf("expected 3 inserted, got %d", stats.Inserted)
	}
}

func TestNewIndexUseCaseDimensionMismatch(t *testing.T) {
	index, _ := vectorindex.NewFlatIndex(8)
	chk, _ := chunker.NewTokenChunker(100, 20, false, analyzer.NewTokenizer())

	_, err := NewIndexUseCase(index, vectorindex.NewIDMap(), memstore.NewMemoryStore(), newStubEmbedder(), chk, nil)
	if !errors.Is(err, vectorindex.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDeleteAthleteIsLogical(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	if _, err := env.indexUC.IndexDocument(markerDoc("doc1"), "Athlete A"); err != nil {
		t.Fatal(err)
	}

	deleted, err := env.indexUC.DeleteAthlete("athlete a")
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", deleted)
	}

	if env.idMap.Len() != 0 {
		t.Errorf("expected no bindings after delete, got %d", env.idMap.Len())
	}
	// Vector slots are not reclaimed.
	if env.index.Len() != 3 {
		t.Errorf("expected vectors to remain, len=%d", env.index.Len())
	}

	stats, err := env.meta.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 0 {
		t.Errorf("expected no records, got %d", stats.TotalRecords)
	}
}

func TestRebuildReclaimsDeletedSlots(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	if _, err := env.indexUC.IndexDocument(markerDoc("doc1"), "Athlete A"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.indexUC.IndexDocument(markerDoc("doc2"), "Athlete B"); err != nil {
		t.Fatal(err)
	}
	if _, err := env.indexUC.DeleteAthlete("Athlete A"); err != nil {
		t.Fatal(err)
	}

	fresh, freshMap, count, err := env.indexUC.Rebuild()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("expected 3 surviving records, got %d", count)
	}
	if fresh.Len() != 3 {
		t.Errorf("expected 3 vectors in rebuilt index, got %d", fresh.Len())
	}
	if freshMap.Len() != 3 {
		t.Errorf("expected 3 bindings in rebuilt map, got %d", freshMap.Len())
	}

	// Every binding resolves to a stored record with a matching vector ID.
	for id, recordID := range freshMap.Bindings() {
		rec, err := env.meta.Get(recordID)
		if err != nil {
			t.Fatal(err)
		}
		if rec.InternalVectorID != id {
			t.Errorf("record %s claims vector %d, bound to %d", recordID, rec.InternalVectorID, id)
		}
	}
}

func TestVerifyReportsDrift(t *testing.T) {
	env := newPipelineEnv(t, 100, 20)

	if _, err := env.indexUC.IndexDocument(markerDoc("doc1"), "Athlete A"); err != nil {
		t.Fatal(err)
	}

	report, err := env.indexUC.Verify()
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Fatalf("fresh index should verify clean: %+v", report)
	}

	// Unbind one record: its vector slot becomes an orphan.
	records, _ := env.meta.List()
	env.idMap.Unbind(records[0].RecordID)

	// Delete another record behind the id map's back: dangling binding.
	var dangling string
	for _, rec := range records[1:] {
		dangling = rec.RecordID
		break
	}
	if err := env.meta.Delete(dangling); err != nil {
		t.Fatal(err)
	}

	report, err = env.indexUC.Verify()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.OrphanVectors) != 1 {
		t.Errorf("expected 1 orphan vector, got %v", report.OrphanVectors)
	}
	if len(report.DanglingBindings) != 1 || report.DanglingBindings[0] != dangling {
		t.Errorf("expected dangling binding %s, got %v", dangling, report.DanglingBindings)
	}
}
