package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"athleterag/internal/domain"
	"athleterag/internal/port"
)

// ErrInvalidConfig indicates chunk sizes that cannot produce a valid split.
var ErrInvalidConfig = errors.New("invalid chunker configuration")

// TokenChunker splits document text into overlapping token windows.
type TokenChunker struct {
	maxTokens       int
	overlap         int
	prependMetadata bool
	tokenizer       port.Tokenizer
}

// NewTokenChunker creates a chunker producing windows of at most maxTokens
// tokens, each window after the first starting overlap tokens before the
// previous window's end. When prependMetadata is set, athlete/topic/title
// are prefixed to the document text before splitting so provenance is
// embedded together with the content.
func NewTokenChunker(maxTokens, overlap int, prependMetadata bool, tokenizer port.Tokenizer) (*TokenChunker, error) {
	if maxTokens < 1 {
		return nil, fmt.Errorf("%w: max tokens must be >= 1, got %d", ErrInvalidConfig, maxTokens)
	}
	if overlap < 0 || overlap >= maxTokens {
		return nil, fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, maxTokens, overlap)
	}
	return &TokenChunker{
		maxTokens:       maxTokens,
		overlap:         overlap,
		prependMetadata: prependMetadata,
		tokenizer:       tokenizer,
	}, nil
}

// Split chunks the document's text. A document no longer than maxTokens
// yields exactly one chunk; an empty document yields none.
func (c *TokenChunker) Split(doc domain.Document) ([]domain.Chunk, error) {
	text := strings.TrimSpace(doc.Text)
	if text == "" {
		return nil, nil
	}

	if c.prependMetadata {
		if prefix := metadataPrefix(doc); prefix != "" {
			text = prefix + "\n\n" + text
		}
	}

	tokens := c.tokenizer.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	stride := c.maxTokens - c.overlap
	var chunks []domain.Chunk

	for start, idx := 0, 0; start < len(tokens); start, idx = start+stride, idx+1 {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		chunkText := strings.Join(tokens[start:end], " ")
		chunks = append(chunks, domain.Chunk{
			Text:        chunkText,
			TokenCount:  end - start,
			ChunkIndex:  idx,
			SourceDocID: doc.ID,
			ContentHash: HashContent(chunkText),
		})

		if end == len(tokens) {
			break
		}
	}

	return chunks, nil
}

// metadataPrefix formats provenance fields for embedding alongside the
// content, improving semantic matches on athlete or topic terms.
func metadataPrefix(doc domain.Document) string {
	var parts []string
	if doc.AthleteName != "" {
		parts = append(parts, "Athlete: "+doc.AthleteName)
	}
	if doc.Topic != "" {
		parts = append(parts, "Topic: "+doc.Topic)
	}
	if doc.Title != "" {
		parts = append(parts, "Title: "+doc.Title)
	}
	return strings.Join(parts, " | ")
}

// HashContent returns the hex SHA-256 digest of a chunk's text, the key
// used for duplicate detection.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
