// Package canon normalizes free-form item names into the two forms the rest
// of the system depends on: a lowercase matching form that feeds similarity
// search and equality checks, and a display form that preserves acronym
// casing for user-facing text and storage. The two must never be conflated.
package canon

import (
	"regexp"
	"strings"
)

var (
	leadingArticles = []string{"a ", "an ", "the ", "some ", "any ", "another ", "additional ", "extra "}

	ofPhraseRe = regexp.MustCompile(`(?i)^(?:\w+\s+)?(?:piece|pieces|bunch|pack|set)\s+of\s+(.+)$`)

	irregulars = map[string]string{
		"children":     "child",
		"men":          "man",
		"women":        "woman",
		"people":       "person",
		"teeth":        "tooth",
		"feet":         "foot",
		"mice":         "mouse",
		"geese":        "goose",
		"hangers":      "hanger",
		"coat hangers": "coat hanger",
	}
)

// Canonicalizer produces matching and display forms of item names.
type Canonicalizer struct{}

// New returns a Canonicalizer.
func New() *Canonicalizer {
	return &Canonicalizer{}
}

// Canonicalize lowercases and collapses whitespace.
func (c *Canonicalizer) Canonicalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), " ")
}

// NormalizeForMatch canonicalizes and singularizes every token. Used for
// cross-index equality when resolving a semantic candidate to a store row.
func (c *Canonicalizer) NormalizeForMatch(text string) string {
	base := c.Canonicalize(text)
	tokens := strings.Fields(base)
	for i, tok := range tokens {
		switch {
		case len(tok) > 4 && strings.HasSuffix(tok, "ies"):
			tok = tok[:len(tok)-3] + "y"
		case len(tok) > 3 && strings.HasSuffix(tok, "es"):
			tok = tok[:len(tok)-2]
		case len(tok) > 3 && strings.HasSuffix(tok, "s"):
			tok = tok[:len(tok)-1]
		}
		tokens[i] = tok
	}
	return strings.Join(tokens, " ")
}

func stripLeadingArticles(text string) string {
	t := strings.TrimSpace(text)
	lower := strings.ToLower(t)
	for _, art := range leadingArticles {
		if strings.HasPrefix(lower, art) {
			return strings.TrimSpace(t[len(art):])
		}
	}
	return t
}

func collapseOfPhrases(text string) string {
	t := strings.TrimSpace(text)
	if m := ofPhraseRe.FindStringSubmatch(t); m != nil {
		return strings.TrimSpace(m[1])
	}
	return t
}

// singularizeToken applies the plural rules to one token. When originalToken
// is an acronym plural like "TVs", the acronym is preserved as-is minus the
// trailing s.
func singularizeToken(token, originalToken string) string {
	if originalToken != "" && len(originalToken) >= 2 {
		prefix := originalToken[:len(originalToken)-1]
		last := originalToken[len(originalToken)-1]
		if (last == 's' || last == 'S') && prefix == strings.ToUpper(prefix) && strings.ToLower(prefix) != prefix {
			return prefix
		}
	}
	tok := token
	if len(tok) > 4 && strings.HasSuffix(tok, "ies") {
		return tok[:len(tok)-3] + "y"
	}
	for _, suf := range []string{"ses", "xes", "zes", "ches", "shes"} {
		if strings.HasSuffix(tok, suf) {
			return tok[:len(tok)-2]
		}
	}
	if len(tok) > 3 && strings.HasSuffix(tok, "s") && !strings.HasSuffix(tok, "ss") {
		return tok[:len(tok)-1]
	}
	return tok
}

// NormalizeToSingular produces the matching form: strip leading articles and
// measure phrases, canonicalize, then singularize the final token. The
// operation is idempotent.
func (c *Canonicalizer) NormalizeToSingular(name string) string {
	base := stripLeadingArticles(name)
	base = collapseOfPhrases(base)
	base = c.Canonicalize(base)
	tokens := strings.Fields(base)
	if len(tokens) == 0 {
		return base
	}
	if s, ok := irregulars[base]; ok {
		return s
	}
	last := len(tokens) - 1
	tokens[last] = singularizeToken(tokens[last], "")
	return strings.Join(tokens, " ")
}

// NormalizeToSingularDisplay is NormalizeToSingular with original token
// casing preserved for fully-uppercase tokens, so "AA batteries" becomes
// "AA battery" and "TVs" becomes "TV".
func (c *Canonicalizer) NormalizeToSingularDisplay(name string) string {
	originalTokens := strings.Fields(strings.TrimSpace(name))
	working := stripLeadingArticles(name)
	working = collapseOfPhrases(working)
	base := c.Canonicalize(working)
	tokens := strings.Fields(base)
	if len(tokens) == 0 {
		return strings.TrimSpace(working)
	}
	// Align original tokens to normalized ones from the right: article and
	// measure-phrase stripping only drops tokens at the front.
	offset := len(originalTokens) - len(tokens)
	origAt := func(i int) string {
		j := i + offset
		if j >= 0 && j < len(originalTokens) {
			return originalTokens[j]
		}
		return ""
	}
	last := len(tokens) - 1
	tokens[last] = singularizeToken(tokens[last], origAt(last))
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		if orig := origAt(i); orig != "" && orig == strings.ToUpper(orig) && strings.ToLower(orig) != orig {
			out[i] = strings.ToUpper(tok)
		} else {
			out[i] = tok
		}
	}
	return strings.Join(out, " ")
}
