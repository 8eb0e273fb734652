package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ovidio_backend/internal/catalog/transport"
	"ovidio_backend/platform/apperr"
	"ovidio_backend/platform/logger"
)

// maxOptions caps how many candidates a Multiple result carries.
const maxOptions = 5

// Store is the catalog the engine resolves against.
type Store interface {
	SearchTerm(ctx context.Context, term string) ([]transport.CatalogItem, error)
}

// TermExtractor derives a short search phrase from a product description.
// The rule-based implementation is the primary path; an LLM-backed one can
// be plugged in as enrichment.
type TermExtractor interface {
	ExtractTerm(ctx context.Context, text string) (string, error)
}

// ResultKind tags a resolution outcome.
type ResultKind int

const (
	// NotFound means no catalog item matched. A normal outcome, not an error.
	NotFound ResultKind = iota
	// Single means exactly one item matched.
	Single
	// Multiple means several items matched; Options carries the best few.
	Multiple
)

// Query records how an utterance was interpreted.
type Query struct {
	Raw        string
	Normalized string
	Attributes Attributes
}

// Result is the outcome of resolving one utterance.
type Result struct {
	Kind         ResultKind
	Item         transport.CatalogItem   // set when Kind == Single
	Options      []transport.CatalogItem // set when Kind == Multiple, at most maxOptions
	TotalMatches int
	Query        Query
}

// Engine resolves utterances against the catalog snapshot, optionally
// falling back to a live remote search when the snapshot store is down.
type Engine struct {
	store     Store
	live      Store // optional
	extractor TermExtractor
	log       *logger.Logger
}

// NewEngine creates a resolution engine. live and extractor may be nil.
func NewEngine(store Store, live Store, extractor TermExtractor, log *logger.Logger) *Engine {
	return &Engine{store: store, live: live, extractor: extractor, log: log}
}

// Resolve matches an utterance against the catalog. With preferInStock set,
// out-of-stock items are dropped from the result unless that would leave
// nothing, in which case the caller is expected to ask for alternatives.
func (e *Engine) Resolve(ctx context.Context, utterance string, preferInStock bool) (Result, error) {
	query := Query{
		Raw:        utterance,
		Normalized: Normalize(utterance),
		Attributes: Extract(utterance),
	}

	candidates, err := e.broadQuery(ctx, query)
	if err != nil {
		return Result{}, err
	}
	if len(candidates) == 0 {
		return Result{Kind: NotFound, Query: query}, nil
	}

	candidates = narrow(candidates, query.Attributes)
	sortStockFirst(candidates)

	if preferInStock {
		if inStock := onlyInStock(candidates); len(inStock) > 0 {
			candidates = inStock
		}
	}

	return buildResult(query, candidates), nil
}

// FindAlternatives suggests in-stock substitutes for an out-of-stock item.
// It derives a short category phrase from the item's own name, resolves it
// stock-first and drops the original item from the answer.
func (e *Engine) FindAlternatives(ctx context.Context, item transport.CatalogItem, desired int) ([]transport.CatalogItem, error) {
	phrase := e.categoryPhrase(ctx, item.Name)
	if phrase == "" {
		return nil, nil
	}

	result, err := e.Resolve(ctx, phrase, true)
	if err != nil {
		return nil, err
	}

	var pool []transport.CatalogItem
	switch result.Kind {
	case Single:
		pool = []transport.CatalogItem{result.Item}
	case Multiple:
		pool = result.Options
	default:
		return nil, nil
	}

	var alternatives []transport.CatalogItem
	for _, alt := range pool {
		if strings.EqualFold(alt.Name, item.Name) || !alt.InStock() {
			continue
		}
		alternatives = append(alternatives, alt)
		if len(alternatives) >= desired {
			break
		}
	}
	return alternatives, nil
}

// broadQuery runs the cascading first-stage lookup: brand, then type, then
// the longest meaningful words of the utterance.
func (e *Engine) broadQuery(ctx context.Context, query Query) ([]transport.CatalogItem, error) {
	attrs := query.Attributes

	if attrs.Brand != "" {
		items, err := e.search(ctx, attrs.Brand)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	if attrs.Type != "" {
		items, err := e.search(ctx, attrs.Type)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	for _, word := range keywordCandidates(query.Normalized) {
		items, err := e.search(ctx, word)
		if err != nil {
			return nil, err
		}
		if len(items) > 0 {
			return items, nil
		}
	}

	return nil, nil
}

// search queries the snapshot store, degrading to the live inventory API
// when the store itself is unavailable. A store that answers "no rows" is
// healthy; only infrastructure failures trigger the fallback.
func (e *Engine) search(ctx context.Context, term string) ([]transport.CatalogItem, error) {
	items, err := e.store.SearchTerm(ctx, term)
	if err == nil {
		return items, nil
	}

	if !apperr.Is(err, apperr.KindUnavailable) || e.live == nil {
		return nil, err
	}

	e.log.RemoteCallFailed("catalog", "search", err)
	return e.live.SearchTerm(ctx, term)
}

// keywordCandidates returns the normalized utterance's words longer than
// three characters, longest first, capped at three.
func keywordCandidates(normalized string) []string {
	var words []string
	for _, w := range strings.Fields(normalized) {
		if len(w) > 3 {
			words = append(words, w)
		}
	}
	sort.SliceStable(words, func(i, j int) bool { return len(words[i]) > len(words[j]) })
	if len(words) > 3 {
		words = words[:3]
	}
	return words
}

// narrow progressively filters candidates by the extracted attributes. Each
// filter is applied only when it keeps at least one candidate, so narrowing
// can never turn a hit into a miss.
func narrow(items []transport.CatalogItem, attrs Attributes) []transport.CatalogItem {
	if attrs.Brand != "" && len(items) > maxOptions {
		items = keepIfAny(items, func(it transport.CatalogItem) bool {
			return containsFold(it.Name, attrs.Brand) || containsFold(it.Brand, attrs.Brand)
		})
	}

	if attrs.ResolutionMP > 0 && len(items) > 1 {
		items = keepIfAny(items, resolutionMatcher(attrs.ResolutionMP))
	}

	if attrs.Type != "" && len(items) > 1 {
		items = keepIfAny(items, func(it transport.CatalogItem) bool {
			return containsFold(it.Name, attrs.Type) || containsFold(it.Category, attrs.Type)
		})
	}

	for _, f := range attrs.Features {
		if len(items) <= 1 {
			break
		}
		items = keepIfAny(items, featureMatcher(f))
	}

	if attrs.Channels > 0 && len(items) > 1 {
		items = keepIfAny(items, channelMatcher(attrs.Channels))
	}

	return items
}

func resolutionMatcher(mp int) func(transport.CatalogItem) bool {
	markers := []string{
		fmt.Sprintf("%dmp", mp),
		fmt.Sprintf("%d mp", mp),
		fmt.Sprintf("%dmegapixel", mp),
		fmt.Sprintf("de %dmp", mp),
	}
	return func(it transport.CatalogItem) bool {
		name := strings.ToLower(it.Name)
		for _, m := range markers {
			if strings.Contains(name, m) {
				return true
			}
		}
		return false
	}
}

func featureMatcher(f Feature) func(transport.CatalogItem) bool {
	return func(it transport.CatalogItem) bool {
		name := strings.ToLower(it.Name)
		switch f {
		case FeatureOutdoor:
			// Bullets are outdoor cameras in practice even when the name
			// does not say so.
			return strings.Contains(name, "ip67") || strings.Contains(name, "ip66") ||
				strings.Contains(name, "exterior") || strings.Contains(name, "outdoor") ||
				strings.Contains(name, "bullet")
		case FeatureWifi:
			return strings.Contains(name, "wifi") || strings.Contains(name, "wireless")
		case FeatureAudio:
			return strings.Contains(name, "audio")
		case FeatureNightColor:
			return strings.Contains(name, "color")
		default:
			return strings.Contains(name, string(f))
		}
	}
}

func channelMatcher(channels int) func(transport.CatalogItem) bool {
	markers := []string{
		fmt.Sprintf("%d canales", channels),
		fmt.Sprintf("%dch", channels),
		fmt.Sprintf("%d ch", channels),
	}
	return func(it transport.CatalogItem) bool {
		name := strings.ToLower(it.Name)
		for _, m := range markers {
			if strings.Contains(name, m) {
				return true
			}
		}
		return false
	}
}

// keepIfAny filters by pred but keeps the original set when the filter
// would empty it.
func keepIfAny(items []transport.CatalogItem, pred func(transport.CatalogItem) bool) []transport.CatalogItem {
	var kept []transport.CatalogItem
	for _, it := range items {
		if pred(it) {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return items
	}
	return kept
}

func onlyInStock(items []transport.CatalogItem) []transport.CatalogItem {
	var kept []transport.CatalogItem
	for _, it := range items {
		if it.InStock() {
			kept = append(kept, it)
		}
	}
	return kept
}

// sortStockFirst moves in-stock items ahead of out-of-stock ones while
// preserving relative order within each group.
func sortStockFirst(items []transport.CatalogItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].InStock() && !items[j].InStock()
	})
}

func buildResult(query Query, candidates []transport.CatalogItem) Result {
	switch len(candidates) {
	case 0:
		return Result{Kind: NotFound, Query: query}
	case 1:
		return Result{Kind: Single, Item: candidates[0], TotalMatches: 1, Query: query}
	default:
		options := candidates
		if len(options) > maxOptions {
			options = options[:maxOptions]
		}
		return Result{
			Kind:         Multiple,
			Options:      options,
			TotalMatches: len(candidates),
			Query:        query,
		}
	}
}

// categoryPhrase derives the 1-3 word phrase used to look for substitutes.
func (e *Engine) categoryPhrase(ctx context.Context, name string) string {
	if e.extractor != nil {
		if phrase, err := e.extractor.ExtractTerm(ctx, name); err == nil && phrase != "" {
			return phrase
		}
	}

	attrs := Extract(name)
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
	if len(parts) == 0 {
		// Fall back to the longest word of the name.
		if words := keywordCandidates(Normalize(name)); len(words) > 0 {
			parts = append(parts, words[0])
		}
	}
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, " ")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
