package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSKULength caps generated and hand-entered SKUs
const MaxSKULength = 20

// skuFallback is used when a name yields no usable characters
const skuFallback = "PRD"

// GenerateSKU derives a deterministic SKU from a product name.
// The name is stripped of diacritics and uppercased, then the SKU is built
// from the first three letters of each of the first two words plus the last
// size-like token (one containing a digit, e.g. "800g" -> "800G").
//
//	"Biscuit Parle 800g" -> "BISPAR800G"
//	"Café au lait 250ml" -> "CAFAU250ML"
//	"Sugar"              -> "SUGAR"
//
// The same name always yields the same SKU; uniqueness against the catalog
// is the caller's concern.
func GenerateSKU(name string) string {
	tokens := tokenizeName(name)
	if len(tokens) == 0 {
		return skuFallback
	}

	var alpha []string
	var size string
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "0123456789") {
			size = tok
			continue
		}
		alpha = append(alpha, tok)
	}

	var b strings.Builder
	switch {
	case len(alpha) >= 2:
		b.WriteString(prefix(alpha[0], 3))
		b.WriteString(prefix(alpha[1], 3))
	case len(alpha) == 1:
		b.WriteString(prefix(alpha[0], 6))
	}
	b.WriteString(size)

	sku := b.String()
	if sku == "" {
		return skuFallback
	}
	if len(sku) > MaxSKULength {
		sku = sku[:MaxSKULength]
	}
	return sku
}

// tokenizeName uppercases the name, strips diacritics, and splits it into
// alphanumeric tokens
func tokenizeName(name string) []string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(t, name)
	if err != nil {
		normalized = name
	}
	normalized = strings.ToUpper(normalized)

	return strings.FieldsFunc(normalized, func(r rune) bool {
		return !((r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
