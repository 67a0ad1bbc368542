// Package dialogue runs the slot-filling conversation: asking for missing
// fields, interpreting noisy spoken answers, and offering choices when
// resolution is ambiguous.
package dialogue

import (
	"context"
	"regexp"
	"strings"

	"storagevoice/internal/inventory"
	"storagevoice/internal/phonetics"
	"storagevoice/pkg"
)

var (
	fillerPrefixRe = regexp.MustCompile(`^(?:also|and|then|just|put(?: it)? in|it'?s in|into)\s+`)
	asInRe         = regexp.MustCompile(`\b([a-z])\s+as\s+in\b`)
	areAsInRe      = regexp.MustCompile(`\b(?:are|ar)\s+as\s+in\b`)
	callItRe       = regexp.MustCompile(`\b(?:call(?:ed)?(?:\s+it)?|name(?:d)?(?:\s+it)?)\s+([a-z0-9_-]+)\s*$`)
	replyPunctRe   = regexp.MustCompile(`[.,!?'"]+`)
	boxTokenRe     = regexp.MustCompile(`\bbox\s+([a-z0-9_-]+)`)
)

// ExtractBoxNameFromReply pulls a box name out of a free-form answer to
// "which box?". Transcripts mangle single letters badly ("bee", "see",
// "B as in bravo"), so spoken letter forms map to the letter itself.
// Returns "" when nothing in the reply looks like a name.
func ExtractBoxNameFromReply(reply string) string {
	t := strings.ToLower(strings.TrimSpace(reply))
	if t == "" {
		return ""
	}
	t = fillerPrefixRe.ReplaceAllString(t, "")

	// "B as in bravo" spells the letter out; the letter before "as in" wins.
	if m := asInRe.FindStringSubmatch(t); m != nil {
		return strings.ToUpper(m[1])
	}
	if areAsInRe.MatchString(t) {
		return "R"
	}

	if m := callItRe.FindStringSubmatch(t); m != nil {
		t = m[1]
	}

	t = strings.TrimSpace(replyPunctRe.ReplaceAllString(t, ""))
	t = strings.TrimSpace(strings.TrimPrefix(t, "box "))
	if t == "" {
		return ""
	}

	tokens := strings.Fields(t)
	if letter, ok := phonetics.UpperLetter(tokens[0]); ok {
		return letter
	}
	if len(tokens) == 1 && len([]rune(tokens[0])) == 1 {
		return strings.ToUpper(tokens[0])
	}
	if letter, ok := phonetics.UpperLetter(t); ok {
		return letter
	}
	return t
}

// ResolveSpokenBoxName maps a free-form reply to an existing box, trying
// progressively looser readings. Nil means nothing matched.
func ResolveSpokenBoxName(ctx context.Context, svc *inventory.Service, reply string) (*pkg.Box, error) {
	if name := ExtractBoxNameFromReply(reply); name != "" {
		box, err := svc.FindBoxByName(ctx, name)
		if err != nil || box != nil {
			return box, err
		}
	}

	t := strings.ToLower(strings.TrimSpace(reply))
	if m := boxTokenRe.FindStringSubmatch(t); m != nil {
		box, err := svc.FindBoxByName(ctx, m[1])
		if err != nil || box != nil {
			return box, err
		}
	}

	// Any standalone token that names a box, letter forms included.
	cleaned := replyPunctRe.ReplaceAllString(t, "")
	for _, tok := range strings.Fields(cleaned) {
		if len([]rune(tok)) == 1 {
			box, err := svc.FindBoxByName(ctx, tok)
			if err != nil || box != nil {
				return box, err
			}
		}
		if _, ok := phonetics.Letter(tok); ok {
			box, err := svc.FindBoxByName(ctx, tok)
			if err != nil || box != nil {
				return box, err
			}
		}
	}

	boxes, err := svc.ListBoxes(ctx)
	if err != nil {
		return nil, err
	}
	for _, tok := range strings.Fields(cleaned) {
		for i := range boxes {
			if strings.EqualFold(boxes[i].Name, tok) {
				return &boxes[i], nil
			}
		}
	}

	return svc.FindBoxByName(ctx, cleaned)
}
