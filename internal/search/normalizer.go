// Package search implements the product-resolution engine: a lexical
// normalizer, an attribute extractor and a cascading resolver that match
// free-text customer utterances against the catalog snapshot.
package search

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a customer utterance. It lowercases, strips
// diacritics, collapses punctuation to spaces, corrects known brand and
// product-type misspellings (longest variant first) and collapses
// whitespace. It is pure and idempotent.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	out := stripDiacritics(strings.ToLower(text))
	out = collapsePunctuation(out)

	out = substituteWords(out, brandSubs)
	out = substituteWords(out, typeSubs)
	out = substituteCode(out)

	return strings.Join(strings.Fields(out), " ")
}

// SearchVariants returns the spellings to try against the remote catalog,
// whose own text is inconsistently spaced and hyphenated.
func SearchVariants(text string) []string {
	base := strings.ToLower(strings.TrimSpace(text))
	variants := []string{base}

	add := func(v string) {
		for _, existing := range variants {
			if existing == v {
				return
			}
		}
		variants = append(variants, v)
	}

	add(strings.ReplaceAll(base, " ", ""))
	add(strings.ReplaceAll(base, " ", "-"))

	normalized := Normalize(text)
	add(normalized)
	add(strings.ReplaceAll(normalized, " ", ""))

	return variants
}

// substituteWords replaces whole-word occurrences of each variant with its
// canonical token. Substitutions are pre-sorted longest first so shorter
// variants cannot corrupt longer ones.
func substituteWords(text string, subs []substitution) string {
	words := strings.Split(text, " ")
	for _, sub := range subs {
		if strings.Contains(sub.variant, " ") {
			// Multi-word variants are matched as phrases.
			if containsPhrase(text, sub.variant) {
				text = replacePhrase(text, sub.variant, sub.canonical)
				words = strings.Split(text, " ")
			}
			continue
		}
		changed := false
		for i, w := range words {
			if w == sub.variant {
				words[i] = sub.canonical
				changed = true
			}
		}
		if changed {
			text = strings.Join(words, " ")
		}
	}
	return text
}

// substituteCode applies the first matching model-code spelling fix. Model
// codes are substrings, not whole words; only one correction is applied,
// matching how customers type at most one code per message.
func substituteCode(text string) string {
	for _, sub := range codeSubs {
		if strings.Contains(text, sub.variant) {
			return strings.Replace(text, sub.variant, sub.canonical, 1)
		}
	}
	return text
}

func containsPhrase(text, phrase string) bool {
	idx := strings.Index(text, phrase)
	if idx < 0 {
		return false
	}
	beforeOK := idx == 0 || text[idx-1] == ' '
	end := idx + len(phrase)
	afterOK := end == len(text) || text[end] == ' '
	return beforeOK && afterOK
}

func replacePhrase(text, phrase, replacement string) string {
	if text == phrase {
		return replacement
	}
	text = strings.ReplaceAll(text, " "+phrase+" ", " "+replacement+" ")
	if strings.HasPrefix(text, phrase+" ") {
		text = replacement + strings.TrimPrefix(text, phrase)
	}
	if strings.HasSuffix(text, " "+phrase) {
		text = strings.TrimSuffix(text, phrase) + replacement
	}
	return text
}

var diacriticMap = map[rune]rune{
	'á': 'a', 'é': 'e', 'í': 'i', 'ó': 'o', 'ú': 'u',
	'à': 'a', 'è': 'e', 'ì': 'i', 'ò': 'o', 'ù': 'u',
	'ä': 'a', 'ë': 'e', 'ï': 'i', 'ö': 'o', 'ü': 'u',
	'ñ': 'n', 'ç': 'c',
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if mapped, ok := diacriticMap[r]; ok {
			b.WriteRune(mapped)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// collapsePunctuation replaces every rune that is not a letter or digit
// with a space.
func collapsePunctuation(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}
