package chat

import (
	"regexp"
	"strconv"
	"strings"

	"ovidio_backend/internal/search"
)

// confirmationPhrases close a pending quotation. They only fire when a
// pending quotation exists and the message is short; "dale" buried in a
// long sentence is conversation, not a confirmation.
var confirmationPhrases = []string{
	"listo", "dale", "ok", "confirmo", "de acuerdo", "perfecto",
}

const confirmationMaxWords = 4

// quoteMarkers signal the customer wants a formal quotation, not just a
// price check.
var quoteMarkers = []string{
	"presupuesto", "presupuestar", "cotiza", "cotizacion", "cotizar", "proforma",
}

var greetingWords = map[string]struct{}{
	"hola": {}, "buenas": {}, "buenos": {}, "hello": {}, "hey": {},
}

// unit suffixes that disqualify a number from being a quantity.
var qtyRe = regexp.MustCompile(`\b(\d{1,3})\s*(mp|megapixel|megapixeles|canales|canal|ch|tb|gb|mm|k|hs)?\b`)

// isConfirmation reports whether a short message is a quotation
// confirmation.
func isConfirmation(text string) bool {
	norm := search.Normalize(text)
	if norm == "" || len(strings.Fields(norm)) > confirmationMaxWords {
		return false
	}
	for _, phrase := range confirmationPhrases {
		if norm == phrase || strings.Contains(" "+norm+" ", " "+phrase+" ") {
			return true
		}
	}
	return false
}

// wantsQuotation reports whether the message asks for a formal quotation.
func wantsQuotation(text string) bool {
	norm := search.Normalize(text)
	for _, marker := range quoteMarkers {
		if strings.Contains(norm, marker) {
			return true
		}
	}
	return false
}

// isGreeting reports whether the message is pure smalltalk opening.
func isGreeting(text string) bool {
	words := strings.Fields(search.Normalize(text))
	if len(words) == 0 || len(words) > 3 {
		return false
	}
	_, ok := greetingWords[words[0]]
	return ok
}

// extractQuantity finds the requested unit count in a message. Numbers
// glued to a unit (2mp, 8 canales, 2tb) are product attributes, not
// quantities. Defaults to 1.
func extractQuantity(text string) int {
	norm := search.Normalize(text)
	for _, m := range qtyRe.FindAllStringSubmatch(norm, -1) {
		if m[2] != "" {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 500 {
			continue
		}
		return n
	}
	return 1
}
