package chunker

import (
	"fmt"
	"strings"
	"testing"

	"athleterag/internal/adapter/analyzer"
	"athleterag/internal/domain"
)

// numberedText builds a document of n distinct word tokens "w0 w1 ... wn-1".
func numberedText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestNewTokenChunkerValidation(t *testing.T) {
	tok := analyzer.NewTokenizer()

	cases := []struct {
		name      string
		maxTokens int
		overlap   int
		wantErr   bool
	}{
		{"valid", 100, 20, false},
		{"zero overlap", 100, 0, false},
		{"zero max", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals max", 100, 100, true},
		{"overlap exceeds max", 100, 150, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewTokenChunker(c.maxTokens, c.overlap, false, tok)
			if c.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSplitShortDocumentSingleChunk(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, err := NewTokenChunker(100, 20, false, tok)
	if err != nil {
		t.Fatal(err)
	}

	doc := domain.Document{ID: "doc1", Text: numberedText(50)}
	chunks, err := c.Split(doc)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].TokenCount != 50 {
		t.Errorf("expected 50 tokens, got %d", chunks[0].TokenCount)
	}
	if chunks[0].ChunkIndex != 0 {
		t.Errorf("expected chunk index 0, got %d", chunks[0].ChunkIndex)
	}
	if chunks[0].SourceDocID != "doc1" {
		t.Errorf("expected source doc 'doc1', got %q", chunks[0].SourceDocID)
	}
}

func TestSplitEmptyDocument(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, _ := NewTokenChunker(100, 20, false, tok)

	chunks, err := c.Split(domain.Document{ID: "doc1", Text: "   \n\t "})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestSplit250TokensIntoThreeChunks(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, _ := NewTokenChunker(100, 20, false, tok)

	doc := domain.Document{ID: "doc1", Text: numberedText(250)}
	chunks, err := c.Split(doc)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}

	// Windows 0-100, 80-180, 160-250.
	wantBounds := []struct{ start, count int }{
		{0, 100},
		{80, 100},
		{160, 90},
	}
	for i, want := range wantBounds {
		chunk := chunks[i]
		if chunk.TokenCount != want.count {
			t.Errorf("chunk %d: expected %d tokens, got %d", i, want.count, chunk.TokenCount)
		}
		words := strings.Fields(chunk.Text)
		if words[0] != fmt.Sprintf("w%d", want.start) {
			t.Errorf("chunk %d: expected first token w%d, got %s", i, want.start, words[0])
		}
		if chunk.ChunkIndex != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunk.ChunkIndex)
		}
	}
}

func TestSplitOverlapStride(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, _ := NewTokenChunker(100, 20, false, tok)

	doc := domain.Document{ID: "doc1", Text: numberedText(500)}
	chunks, err := c.Split(doc)
	if err != nil {
		t.Fatal(err)
	}

	// Every chunk after the first starts exactly maxTokens-overlap tokens
	// after the previous chunk's start.
	for i := 1; i < len(chunks); i++ {
		prevStart := firstTokenNumber(t, chunks[i-1].Text)
		curStart := firstTokenNumber(t, chunks[i].Text)
		if curStart-prevStart != 80 {
			t.Errorf("chunk %d starts %d tokens after chunk %d, want 80", i, curStart-prevStart, i-1)
		}
	}
}

func TestSplitCoversEveryToken(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, _ := NewTokenChunker(100, 20, false, tok)

	const total = 437
	doc := domain.Document{ID: "doc1", Text: numberedText(total)}
	chunks, err := c.Split(doc)
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]bool)
	for _, chunk := range chunks {
		for _, word := range strings.Fields(chunk.Text) {
			seen[word] = true
		}
	}
	for i := 0; i < total; i++ {
		if !seen[fmt.Sprintf("w%d", i)] {
			t.Errorf("token w%d missing from all chunks", i)
		}
	}

	// Concatenating the non-overlap regions reconstructs the original
	// token sequence.
	var rebuilt []string
	for i, chunk := range chunks {
		words := strings.Fields(chunk.Text)
		if i < len(chunks)-1 {
			words = words[:len(words)-20]
		}
		rebuilt = append(rebuilt, words...)
	}
	if got := strings.Join(rebuilt, " "); got != doc.Text {
		t.Error("non-overlap regions do not reconstruct the original token sequence")
	}
}

func TestSplitMetadataPrefix(t *testing.T) {
	tok := analyzer.NewTokenizer()
	c, _ := NewTokenChunker(1000, 0, true, tok)

	doc := domain.Document{
		ID:          "doc1",
		AthleteName: "Serena Williams",
		Topic:       "injury",
		Title:       "Comeback after surgery",
		Text:        "She returned to the tour in March.",
	}
	chunks, err := c.Split(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	for _, want := range []string{"Athlete: Serena Williams", "Topic: injury", "Title: Comeback after surgery"} {
		if !strings.Contains(chunks[0].Text, want) {
			t.Errorf("chunk text missing metadata %q", want)
		}
	}
}

func TestContentHashStableAndDistinct(t *testing.T) {
	a := HashContent("some passage")
	b := HashContent("some passage")
	c := HashContent("another passage")

	if a != b {
		t.Error("identical text produced different hashes")
	}
	if a == c {
		t.Error("different text produced identical hashes")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func firstTokenNumber(t *testing.T, text string) int {
	t.Helper()
	words := strings.Fields(text)
	var n int
	if _, err := fmt.Sscanf(words[0], "w%d", &n); err != nil {
		t.Fatalf("unexpected token %q: %v", words[0], err)
	}
	return n
}
