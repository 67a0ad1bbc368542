package nlu

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"storagevoice/internal/logger"
	"storagevoice/pkg"
)

var removeEverythingRe = regexp.MustCompile(`\bremove\s+(?:all|everything)\b`)

// Extractor decomposes one utterance into an ordered list of op drafts via
// the language model. Extraction failures degrade to an empty list so the
// caller can fall back to the single-op rule parser.
type Extractor struct {
	llm Client
}

func NewExtractor(client Client) *Extractor {
	return &Extractor{llm: client}
}

// Extract returns the ops found in text, in utterance order.
func (e *Extractor) Extract(ctx context.Context, text string) []pkg.Op {
	content, err := e.llm.Generate(ctx, multiOpInstruction, fmt.Sprintf("Text: %q", text))
	if err != nil {
		logger.Warn().Err(err).Msg("multi-op extraction call failed")
		return nil
	}
	ops := decodeOpList(content)
	if ops == nil {
		logger.Warn().Str("raw", content).Msg("multi-op extraction returned unparseable output")
		return nil
	}
	return e.repair(strings.ToLower(text), ops)
}

// repair fixes the model's recurring omissions: an explicit "remove all"
// that came back without the flag, and a destination box stated once but
// attached to only one of several additions.
func (e *Extractor) repair(t string, ops []pkg.Op) []pkg.Op {
	removeAll := removeEverythingRe.MatchString(t)
	for i := range ops {
		if removeAll && ops[i].Intent == pkg.IntentRemove && ops[i].Quantity == "" {
			ops[i].RemoveAll = true
			ops[i].Everything = true
		}
		if ops[i].ObjectName != "" {
			ops[i].ObjectName = normalizeItem(ops[i].ObjectName)
		}
		if ops[i].ToBox != "" {
			ops[i].ToBox = normalizeBoxName(ops[i].ToBox)
		}
		if ops[i].FromBox != "" {
			ops[i].FromBox = normalizeBoxName(ops[i].FromBox)
		}
	}

	// Propagate a single stated destination across additions that lack one.
	dest := ""
	unique := true
	for _, op := range ops {
		if op.Intent == pkg.IntentAdd && op.ToBox != "" {
			if dest == "" {
				dest = op.ToBox
			} else if dest != op.ToBox {
				unique = false
			}
		}
	}
	if dest != "" && unique {
		for i := range ops {
			if ops[i].Intent == pkg.IntentAdd && ops[i].ToBox == "" {
				ops[i].ToBox = dest
			}
		}
	}
	return ops
}
