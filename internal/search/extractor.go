package search

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Feature is a canonical product feature token.
type Feature string

// Canonical feature tokens. Values follow the catalog's own (Spanish)
// vocabulary.
const (
	FeatureOutdoor    Feature = "exterior"
	FeatureIndoor     Feature = "interior"
	FeatureWifi       Feature = "wifi"
	FeaturePoE        Feature = "poe"
	FeatureAudio      Feature = "audio"
	FeatureNightColor Feature = "color"
)

// Attributes are the structured signals pulled out of an utterance. Zero
// values mean the signal was absent; extraction itself never fails.
type Attributes struct {
	Brand        string
	Type         string
	ResolutionMP int
	Channels     int
	Features     []Feature
}

// brandSimilarityThreshold is the minimum bigram Dice score for accepting a
// token as a misspelled brand not present in any table.
const brandSimilarityThreshold = 0.7

var (
	resolutionRe = regexp.MustCompile(`(\d+)\s*(?:mp|mega(?:s|pixel(?:es)?)?)\b`)
	channelsRe   = regexp.MustCompile(`(\d+)\s*(?:canales|channels|ch)\b`)
)

// fixedResolutions maps marketing resolution names to megapixels.
var fixedResolutions = []struct {
	marker string
	mp     int
}{
	{"full hd", 2},
	{"1080p", 2},
	{"1080", 2},
	{"2k", 4},
	{"4k", 8},
}

// Extract pulls structured attributes out of free text.
func Extract(text string) Attributes {
	normalized := Normalize(text)

	return Attributes{
		Brand:        detectBrand(normalized),
		Type:         detectType(normalized),
		ResolutionMP: detectResolution(normalized),
		Channels:     detectChannels(normalized),
		Features:     detectFeatures(normalized),
	}
}

// detectBrand looks every token up in the alias table, then falls back to
// bigram similarity against all known brand spellings. The fallback is what
// catches novel misspellings no table anticipated.
func detectBrand(normalized string) string {
	tokens := strings.Fields(normalized)

	for _, tok := range tokens {
		if canonical, ok := brandAliases[tok]; ok {
			return canonical
		}
	}

	bestScore := 0.0
	bestBrand := ""
	for _, tok := range tokens {
		if len(tok) < 3 {
			continue
		}
		for alias, canonical := range brandAliases {
			score := DiceSimilarity(tok, alias)
			if score > bestScore {
				bestScore = score
				bestBrand = canonical
			}
		}
	}

	if bestScore > brandSimilarityThreshold {
		return bestBrand
	}
	return ""
}

func detectType(normalized string) string {
	// Canonical tokens are checked in deterministic order so ties resolve
	// stably across runs.
	canonicals := make([]string, 0, len(typeSynonyms))
	for c := range typeSynonyms {
		canonicals = append(canonicals, c)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		for _, syn := range typeSynonyms[canonical] {
			if containsPhrase(normalized, syn) {
				return canonical
			}
		}
	}
	return ""
}

func detectResolution(normalized string) int {
	if m := resolutionRe.FindStringSubmatch(normalized); m != nil {
		if mp, err := strconv.Atoi(m[1]); err == nil {
			return mp
		}
	}
	for _, fixed := range fixedResolutions {
		if strings.Contains(normalized, fixed.marker) {
			return fixed.mp
		}
	}
	return 0
}

func detectChannels(normalized string) int {
	if m := channelsRe.FindStringSubmatch(normalized); m != nil {
		if ch, err := strconv.Atoi(m[1]); err == nil {
			return ch
		}
	}
	return 0
}

func detectFeatures(normalized string) []Feature {
	ordered := []Feature{
		FeatureOutdoor, FeatureIndoor, FeatureWifi,
		FeaturePoE, FeatureAudio, FeatureNightColor,
	}

	var found []Feature
	for _, f := range ordered {
		for _, syn := range featureSynonyms[string(f)] {
			if containsPhrase(normalized, syn) {
				found = append(found, f)
				break
			}
		}
	}
	return found
}

// HasFeature reports whether the attribute set contains the given feature.
func (a Attributes) HasFeature(f Feature) bool {
	for _, have := range a.Features {
		if have == f {
			return true
		}
	}
	return false
}

// DiceSimilarity scores two strings by shared character bigrams
// (Dice coefficient). Returns 1 for identical strings and 0 when either is
// too short to have a bigram.
func DiceSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) < 2 || len(b) < 2 {
		return 0
	}

	bigrams := make(map[string]struct{}, len(a)-1)
	for i := 0; i+2 <= len(a); i++ {
		bigrams[a[i:i+2]] = struct{}{}
	}

	matches := 0
	for i := 0; i+2 <= len(b); i++ {
		if _, ok := bigrams[b[i:i+2]]; ok {
			matches++
		}
	}

	return float64(2*matches) / float64(len(a)+len(b)-2)
}
