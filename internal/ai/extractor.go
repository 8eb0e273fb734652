// Package ai provides search-term extraction from free-form product talk.
// The rule-based extractor is the primary path; the LLM-backed one is an
// optional refinement that falls back to the rules on any failure.
package ai

import (
	"context"
	"fmt"
	"strings"

	"ovidio_backend/internal/search"
	"ovidio_backend/platform/logger"
)

// stopwords are chat filler that never identifies a product.
var stopwords = map[string]struct{}{
	"hola": {}, "buenas": {}, "buenos": {}, "dias": {}, "tardes": {}, "noches": {},
	"quiero": {}, "necesito": {}, "busco": {}, "tenes": {}, "tienen": {}, "hay": {},
	"precio": {}, "cuanto": {}, "sale": {}, "vale": {}, "cuesta": {}, "presupuesto": {},
	"para": {}, "una": {}, "uno": {}, "unas": {}, "unos": {}, "con": {}, "por": {},
	"favor": {}, "gracias": {}, "algo": {}, "que": {}, "del": {}, "las": {}, "los": {},
	"estoy": {}, "buscando": {}, "consulta": {}, "consultar": {}, "saber": {},
}

// RuleExtractor derives a 1-3 word search phrase deterministically from the
// extracted product attributes.
type RuleExtractor struct{}

// NewRuleExtractor creates the deterministic extractor.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// ExtractTerm builds the search phrase: product type and brand when
// detected, otherwise the longest non-filler words of the message.
func (e *RuleExtractor) ExtractTerm(_ context.Context, text string) (string, error) {
	attrs := search.Extract(text)

	var parts []string
	if attrs.Type != "" {
		parts = append(parts, attrs.Type)
	}
	if attrs.Brand != "" {
		parts = append(parts, attrs.Brand)
	}
	if attrs.ResolutionMP > 0 {
		parts = append(parts, fmt.Sprintf("%dmp", attrs.ResolutionMP))
	}
	if len(parts) > 0 {
		if len(parts) > 3 {
			parts = parts[:3]
		}
		return strings.Join(parts, " "), nil
	}

	words := contentWords(search.Normalize(text))
	if len(words) == 0 {
		return "", nil
	}
	if len(words) > 3 {
		words = words[:3]
	}
	return strings.Join(words, " "), nil
}

// contentWords filters stopwords and short tokens, keeping message order.
func contentWords(normalized string) []string {
	var words []string
	for _, w := range strings.Fields(normalized) {
		if len(w) <= 3 {
			continue
		}
		if _, filler := stopwords[w]; filler {
			continue
		}
		words = append(words, w)
	}
	return words
}

// FallbackExtractor tries a primary extractor and falls back to a second
// one when the primary errors or answers empty.
type FallbackExtractor struct {
	primary  search.TermExtractor
	fallback search.TermExtractor
	log      *logger.Logger
}

// NewFallbackExtractor chains two extractors.
func NewFallbackExtractor(primary, fallback search.TermExtractor, log *logger.Logger) *FallbackExtractor {
	return &FallbackExtractor{primary: primary, fallback: fallback, log: log}
}

// ExtractTerm implements search.TermExtractor.
func (e *FallbackExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	term, err := e.primary.ExtractTerm(ctx, text)
	if err == nil && term != "" {
		return term, nil
	}
	if err != nil {
		e.log.RemoteCallFailed("ai", "extract_term", err)
	}
	return e.fallback.ExtractTerm(ctx, text)
}
