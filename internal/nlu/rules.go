package nlu

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storagevoice/internal/logger"
	"storagevoice/internal/phonetics"
	"storagevoice/pkg"
)

const qtyWords = `\d+|one|two|three|four|five|six|seven|eight|nine|ten|a|an|some`

// Ordered rule cascade. Each pattern is only consulted when the previous one
// found no match; order is load-bearing.
var (
	moveWithDestRe = regexp.MustCompile(`(?:move|moving|put|place|relocate|relocating)\s+([a-z0-9 /-]+?)\s+(?:from\s+(?:box\s+)?([a-z0-9_-]+)\s+)?(?:to|into|in)\s+(?:box\s+)?([a-z0-9_-]+)`)
	moveVerbRe     = regexp.MustCompile(`\b(?:move|moving|relocate|relocating)\b`)
	moveDestRe     = regexp.MustCompile(`\b(?:to|into|in)\b`)
	moveBareRe     = regexp.MustCompile(`(?:move|moving|relocate|relocating|put|place)\s+([a-z0-9 /-]+?)\s*[.!?]*$`)

	addBoxNamedRe  = regexp.MustCompile(`(?:add|create|make)\s+(?:a\s+)?(?:new\s+)?box.*?(?:named|called|call(?:\s+it)?)\s+([a-z0-9_-]+)`)
	addBoxSimpleRe = regexp.MustCompile(`(?:add|create|make)\s+(?:a\s+)?(?:new\s+)?box\s+([a-z0-9_-]+)`)
	addBoxBareRe   = regexp.MustCompile(`(?:add|create|make)\s+(?:a\s+)?(?:new\s+)?box\b`)
	removeBoxRe    = regexp.MustCompile(`(?:remove|delete)\s+(?:the\s+)?box\s+([a-z0-9_-]+)`)
	clearBoxRe     = regexp.MustCompile(`(?:remove|removing|delete|clear)\s+(?:(?:all\s+)?(?:the\s+)?items?|everything)\s+(?:from|in|inside)\s+(?:box\s+)?([a-z0-9_-]+)`)
	clearBoxAltRe  = regexp.MustCompile(`(?:i\s*'?m\s+)?(?:going\s+to\s+)?(?:remove|removing|clear|delete)[^a-z0-9]+(?:everything|all)\s+(?:from|in|inside)\s+(?:box\s+)?([a-z0-9_-]+)`)

	addWithBoxRe = regexp.MustCompile(`(?:add(?:ing|ed)?|put|place)\s+(?:(` + qtyWords + `)\s+)?([a-z0-9 /-]+?)\s+(?:to|into|in)\s+box\s+([a-z0-9_-]+)`)
	addBareRe    = regexp.MustCompile(`(?:add(?:ing|ed)?|put|place)\s+(?:(` + qtyWords + `)\s+)?([a-z0-9 /-]+?)\s*[.?!]*$`)

	removeAllRe  = regexp.MustCompile(`(?:remove|removing|removed|take|grab)\s+all(?:\s+of\s+the)?\s+([a-z0-9 /-]+)`)
	removeQtyRe  = regexp.MustCompile(`(?:remove(?:ing|ed)?|take|grab)\s+(?:(` + qtyWords + `)\s+)?([a-z0-9 /-]+)`)
	removeDeclRe = regexp.MustCompile(`(?:i\s*(?:am|'m)\s+)?remove(?:ing|ed)?\s+([a-z0-9 /-]+?)\s*[.!?]*$`)

	findRe = regexp.MustCompile(`(?:do i have|where is|find)\s+([a-z0-9 /-]+)\??`)

	singularHintRe = regexp.MustCompile(`\b(?:one|a|an|another)\b`)
	allHintRe      = regexp.MustCompile(`\ball\b|\beverything\b`)

	addVerbRe    = regexp.MustCompile(`\b(?:add|adding|added|put|place|more|another|additional|extra)\b`)
	removeVerbRe = regexp.MustCompile(`\b(?:remove|removing|removed|take|grab|less|fewer)\b`)
	findVerbRe   = regexp.MustCompile(`\b(?:where is|find|do i have)\b`)
	moveHintRe   = regexp.MustCompile(`\b(?:move|moving|relocate|relocating)\b`)

	trailingPunctRe  = regexp.MustCompile(`[.,!?]+$`)
	measurePhraseRe  = regexp.MustCompile(`^(?:\d+\s+)?(?:sticks|pieces|bottles|packs|boxes|bags|rolls|sets|cups|slices|loaves|cans|bunches|pairs|bars|tubes|tubs|cartons|cases|batches)\s+of\s+`)
	leadingExtraRe   = regexp.MustCompile(`^(?:more|extra|additional)\s+`)
	trailingFillerRe = regexp.MustCompile(`\b(?:items|pieces|units)$`)
	spacesRe         = regexp.MustCompile(`\s+`)
)

var itemIrregulars = map[string]string{
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

var boxFillerNames = map[string]bool{
	"and": true, "then": true, "please": true,
	"named": true, "called": true, "call": true, "it": true,
}

// RuleParser turns one utterance into a single op draft via an ordered
// pattern cascade, delegating to the language model when no rule matches.
// Parse never fails; an unrecognized utterance yields a zero-intent op.
type RuleParser struct {
	llm Client
}

// Client mirrors llm.Client locally so fakes can stand in for the backend.
type Client interface {
	Generate(ctx context.Context, instruction string, input string) (string, error)
}

// NewRuleParser builds a parser over the given language-model client.
func NewRuleParser(client Client) *RuleParser {
	return &RuleParser{llm: client}
}

// normalizeBoxName strips punctuation and a leading "box ", then maps spoken
// letter forms to the letter itself (lowercase).
func normalizeBoxName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = trailingPunctRe.ReplaceAllString(n, "")
	n = strings.TrimSpace(strings.TrimPrefix(n, "box "))
	if letter, ok := phonetics.Letter(n); ok {
		return letter
	}
	return n
}

// normalizeItem cleans a captured object name: determiners, measure phrases,
// trailing fillers, then plural to singular on the last token.
func normalizeItem(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = trailingPunctRe.ReplaceAllString(n, "")
	for _, art := range []string{"a ", "an ", "the ", "some ", "any ", "more ", "another ", "additional ", "extra "} {
		if strings.HasPrefix(n, art) {
			n = n[len(art):]
			break
		}
	}
	n = measurePhraseRe.ReplaceAllString(n, "")
	n = leadingExtraRe.ReplaceAllString(n, "")
	n = strings.TrimSpace(trailingFillerRe.ReplaceAllString(n, ""))
	if s, ok := itemIrregulars[n]; ok {
		return s
	}
	tokens := strings.Fields(n)
	if len(tokens) > 0 {
		last := tokens[len(tokens)-1]
		switch {
		case strings.HasSuffix(last, "ies"):
			last = last[:len(last)-3] + "y"
		case strings.HasSuffix(last, "ses"),
			strings.HasSuffix(last, "xes"), strings.HasSuffix(last, "zes"),
			strings.HasSuffix(last, "ches"), strings.HasSuffix(last, "shes"):
			last = last[:len(last)-2]
		case strings.HasSuffix(last, "s") && !strings.HasSuffix(last, "ss"):
			last = last[:len(last)-1]
		}
		tokens[len(tokens)-1] = last
		n = strings.Join(tokens, " ")
	}
	return strings.TrimSpace(spacesRe.ReplaceAllString(n, " "))
}

// qtyFromToken normalizes a quantity token (digits or a number word) to
// decimal text. Returns "" when the token carries no quantity.
func qtyFromToken(tok string) string {
	tok = strings.ToLower(strings.TrimSpace(tok))
	if tok == "" {
		return ""
	}
	if n, err := strconv.Atoi(tok); err == nil && n >= 0 {
		return strconv.Itoa(n)
	}
	if n, ok := phonetics.Number(tok); ok {
		return strconv.Itoa(n)
	}
	return ""
}

// postprocess applies the shared cleanup: default singular quantity, intent
// inference from surface verbs, and object normalization.
func postprocess(t string, op pkg.Op) pkg.Op {
	if (op.Intent == pkg.IntentAdd || op.Intent == pkg.IntentRemove) && op.Quantity == "" {
		if singularHintRe.MatchString(t) {
			op.Quantity = "1"
		}
	}
	if op.Intent == "" {
		switch {
		case addVerbRe.MatchString(t):
			op.Intent = pkg.IntentAdd
		case removeVerbRe.MatchString(t):
			op.Intent = pkg.IntentRemove
		case findVerbRe.MatchString(t):
			op.Intent = pkg.IntentFind
		case moveHintRe.MatchString(t):
			op.Intent = pkg.IntentMove
		}
	}
	if op.ObjectName != "" {
		op.ObjectName = normalizeItem(op.ObjectName)
	}
	return op
}

// Parse applies the rule cascade to one utterance; first match wins.
func (p *RuleParser) Parse(ctx context.Context, text string) pkg.Op {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return pkg.Op{}
	}

	if m := moveWithDestRe.FindStringSubmatch(t); m != nil {
		return postprocess(t, pkg.Op{
			Intent:     pkg.IntentMove,
			ObjectName: m[1],
			FromBox:    normalizeOptionalBox(m[2]),
			ToBox:      normalizeOptionalBox(m[3]),
		})
	}

	// MOVE without a destination: the box is slot-filled later.
	if moveVerbRe.MatchString(t) && !moveDestRe.MatchString(t) {
		if m := moveBareRe.FindStringSubmatch(t); m != nil {
			return postprocess(t, pkg.Op{Intent: pkg.IntentMove, ObjectName: m[1]})
		}
	}

	if m := addBoxNamedRe.FindStringSubmatch(t); m != nil {
		return pkg.Op{Intent: pkg.IntentAddBox, ToBox: normalizeBoxName(m[1])}
	}
	if m := addBoxSimpleRe.FindStringSubmatch(t); m != nil {
		if !boxFillerNames[m[1]] {
			return pkg.Op{Intent: pkg.IntentAddBox, ToBox: normalizeBoxName(m[1])}
		}
	}
	if addBoxBareRe.MatchString(t) {
		return pkg.Op{Intent: pkg.IntentAddBox}
	}

	if m := removeBoxRe.FindStringSubmatch(t); m != nil {
		return pkg.Op{Intent: pkg.IntentRemoveBox, ToBox: normalizeBoxName(m[1])}
	}

	if m := clearBoxRe.FindStringSubmatch(t); m != nil {
		return pkg.Op{Intent: pkg.IntentClearBox, ToBox: normalizeBoxName(m[1])}
	}
	if m := clearBoxAltRe.FindStringSubmatch(t); m != nil {
		return pkg.Op{Intent: pkg.IntentClearBox, ToBox: normalizeBoxName(m[1])}
	}

	if m := addWithBoxRe.FindStringSubmatch(t); m != nil {
		qty := qtyFromToken(m[1])
		if qty == "" {
			qty = "1"
		}
		return postprocess(t, pkg.Op{
			Intent:     pkg.IntentAdd,
			ObjectName: m[2],
			Quantity:   qty,
			ToBox:      normalizeBoxName(m[3]),
		})
	}
	if m := addBareRe.FindStringSubmatch(t); m != nil {
		qty := qtyFromToken(m[1])
		if qty == "" {
			qty = "1"
		}
		return postprocess(t, pkg.Op{Intent: pkg.IntentAdd, ObjectName: m[2], Quantity: qty})
	}

	if m := removeAllRe.FindStringSubmatch(t); m != nil {
		return postprocess(t, pkg.Op{Intent: pkg.IntentRemove, ObjectName: m[1], RemoveAll: true})
	}
	if m := removeQtyRe.FindStringSubmatch(t); m != nil {
		qty := qtyFromToken(m[1])
		if qty == "" {
			qty = "1"
		}
		return postprocess(t, pkg.Op{Intent: pkg.IntentRemove, ObjectName: m[2], Quantity: qty})
	}
	if m := removeDeclRe.FindStringSubmatch(t); m != nil {
		return postprocess(t, pkg.Op{Intent: pkg.IntentRemove, ObjectName: m[1]})
	}

	if m := findRe.FindStringSubmatch(t); m != nil {
		return postprocess(t, pkg.Op{Intent: pkg.IntentFind, ObjectName: strings.TrimSpace(m[1])})
	}

	return p.parseWithModel(ctx, text, t)
}

func normalizeOptionalBox(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return normalizeBoxName(s)
}

// parseWithModel is the fallback when no rule matched. Every failure path
// returns a zero-intent op; this never raises to the caller.
func (p *RuleParser) parseWithModel(ctx context.Context, original, t string) pkg.Op {
	content, err := p.llm.Generate(ctx, singleOpInstruction, fmt.Sprintf("Text: %q", original))
	if err != nil {
		logger.Warn().Err(err).Msg("intent fallback model call failed")
		return pkg.Op{}
	}
	op, ok := decodeOp(content)
	if !ok {
		logger.Warn().Str("raw", content).Msg("intent fallback returned unparseable output")
		return pkg.Op{}
	}
	if op.ObjectName != "" {
		op.ObjectName = normalizeItem(op.ObjectName)
	}
	op = postprocess(t, op)
	if op.Intent == pkg.IntentRemove && allHintRe.MatchString(t) {
		op.RemoveAll = true
	}
	if !op.Intent.Valid() {
		return pkg.Op{}
	}
	return op
}
