package search

import (
	_ "embed"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed synonyms.yaml
var synonymsYAML []byte

type synonymTables struct {
	Brands   map[string][]string `yaml:"brands"`
	Types    map[string][]string `yaml:"types"`
	Features map[string][]string `yaml:"features"`
	Codes    map[string][]string `yaml:"codes"`
}

// substitution maps one variant to its canonical token.
type substitution struct {
	variant   string
	canonical string
}

var (
	tables synonymTables

	// brandSubs and typeSubs are sorted longest-variant-first so that a long
	// variant is never corrupted by a shorter one substituted inside it.
	brandSubs []substitution
	typeSubs  []substitution
	codeSubs  []substitution

	// brandAliases maps every brand variant (and the canonical name itself)
	// to the canonical brand, for exact extractor lookups.
	brandAliases map[string]string
	brandNames   []string

	// typeSynonyms and featureSynonyms map canonical tokens to their
	// diacritic-stripped variants, canonical token included.
	typeSynonyms    map[string][]string
	featureSynonyms map[string][]string
)

func init() {
	if err := yaml.Unmarshal(synonymsYAML, &tables); err != nil {
		panic("search: malformed synonyms.yaml: " + err.Error())
	}

	brandSubs = buildSubs(tables.Brands)
	typeSubs = buildSubs(tables.Types)
	codeSubs = buildSubs(tables.Codes)

	brandAliases = make(map[string]string)
	for canonical, variants := range tables.Brands {
		brandNames = append(brandNames, canonical)
		brandAliases[canonical] = canonical
		for _, v := range variants {
			brandAliases[v] = canonical
		}
	}
	sort.Strings(brandNames)

	typeSynonyms = buildSynonyms(tables.Types)
	featureSynonyms = buildSynonyms(tables.Features)
}

func buildSynonyms(table map[string][]string) map[string][]string {
	out := make(map[string][]string, len(table))
	for canonical, variants := range table {
		list := make([]string, 0, len(variants)+1)
		list = append(list, canonical)
		for _, v := range variants {
			list = append(list, stripDiacritics(v))
		}
		out[canonical] = list
	}
	return out
}

func buildSubs(table map[string][]string) []substitution {
	var subs []substitution
	for canonical, variants := range table {
		for _, v := range variants {
			// Variants are listed as typed; matching happens after the
			// normalizer has already stripped diacritics.
			v = stripDiacritics(v)
			if v == canonical {
				continue
			}
			subs = append(subs, substitution{variant: v, canonical: canonical})
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		if len(subs[i].variant) != len(subs[j].variant) {
			return len(subs[i].variant) > len(subs[j].variant)
		}
		return subs[i].variant < subs[j].variant
	})
	return subs
}
