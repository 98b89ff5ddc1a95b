package analyzer

import "strings"

// Tokenizer splits text into whitespace-delimited word tokens.
//
// Chunk boundaries are computed over these tokens and chunk text is
// reassembled from them, so tokens must preserve the original words
// verbatim: no lowercasing, no stemming, no stopword removal.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into word tokens, preserving case and punctuation.
func (t *Tokenizer) Tokenize(text string) []string {
	return strings.Fields(text)
}

// CountTokens returns the number of word tokens in text. An approximation
// of model tokens, in the same units the chunker splits on.
func (t *Tokenizer) CountTokens(text string) int {
	return len(strings.Fields(text))
}
