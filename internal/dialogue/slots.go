package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storagevoice/internal/canon"
	"storagevoice/internal/inventory"
	"storagevoice/internal/logger"
	"storagevoice/internal/nlu"
	"storagevoice/internal/phonetics"
	"storagevoice/internal/speech"
	"storagevoice/pkg"
)

// Slot field names, shared with the answer aligner prompt.
const (
	FieldObjectName = "object_name"
	FieldQuantity   = "quantity"
	FieldToBox      = "to_box"
	FieldFromBox    = "from_box"
)

var (
	allWordRe = regexp.MustCompile(`\ball\b|\beverything\b`)
	numRe     = regexp.MustCompile(`\d+`)
)

// Aligner is the model-backed answer interpreter. The zero Aligned result
// signals "fall back to raw-transcript heuristics".
type Aligner interface {
	Normalize(ctx context.Context, field, answer string, intent pkg.Intent, objectName string) nlu.Aligned
}

// Filler drives the slot-filling conversation for a batch of ops. Each op
// gets its missing required fields asked for in turn, every question with
// its own retry budget; a question whose budget runs out cancels the whole
// batch.
type Filler struct {
	svc     *inventory.Service
	voice   speech.Voice
	aligner Aligner
	canon   *canon.Canonicalizer
	noise   []string
}

func NewFiller(svc *inventory.Service, voice speech.Voice, aligner Aligner, noisePhrases []string) *Filler {
	return &Filler{
		svc:     svc,
		voice:   voice,
		aligner: aligner,
		canon:   canon.New(),
		noise:   noisePhrases,
	}
}

// NormalizeBatch rewrites op shapes the extractor produces for phrasings
// that mean something more specific. "Remove everything from box B" arrives
// as a REMOVE with a box and no object; that is a box clear.
func NormalizeBatch(ops []pkg.Op) []pkg.Op {
	out := make([]pkg.Op, len(ops))
	copy(out, ops)
	for i := range out {
		if out[i].Intent == pkg.IntentRemove &&
			(out[i].RemoveAll || out[i].Everything) &&
			out[i].ToBox != "" && out[i].ObjectName == "" {
			out[i] = pkg.Op{Intent: pkg.IntentClearBox, ToBox: out[i].ToBox}
		}
	}
	return out
}

// missingFields lists the required fields the op does not yet carry, in
// asking order.
func missingFields(op pkg.Op) []string {
	var missing []string
	need := func(field, val string) {
		if val == "" {
			missing = append(missing, field)
		}
	}
	switch op.Intent {
	case pkg.IntentAdd:
		need(FieldObjectName, op.ObjectName)
	case pkg.IntentRemove:
		need(FieldObjectName, op.ObjectName)
		if !op.RemoveAll && op.Quantity == "" {
			missing = append(missing, FieldQuantity)
		}
	case pkg.IntentMove:
		if op.Everything {
			need(FieldFromBox, op.FromBox)
			need(FieldToBox, op.ToBox)
		} else {
			need(FieldObjectName, op.ObjectName)
			need(FieldToBox, op.ToBox)
		}
	case pkg.IntentFind:
		if !(op.Everything && op.ToBox != "") {
			need(FieldObjectName, op.ObjectName)
		}
	case pkg.IntentClearBox, pkg.IntentAddBox, pkg.IntentRemoveBox:
		need(FieldToBox, op.ToBox)
	}
	return missing
}

func questionFor(op pkg.Op, field string) string {
	switch field {
	case FieldObjectName:
		switch op.Intent {
		case pkg.IntentRemove:
			return "What would you like to remove?"
		case pkg.IntentMove:
			return "What would you like to move?"
		case pkg.IntentFind:
			return "What are you looking for?"
		}
		return "What would you like to add?"
	case FieldQuantity:
		if op.Intent == pkg.IntentRemove {
			return fmt.Sprintf("How many %s should I remove? You can say all.", op.ObjectName)
		}
		return fmt.Sprintf("How many %s?", op.ObjectName)
	case FieldFromBox:
		return "Which box is it in now?"
	case FieldToBox:
		switch op.Intent {
		case pkg.IntentAddBox:
			return "What should the new box be called?"
		case pkg.IntentRemoveBox:
			return "Which box should be removed?"
		case pkg.IntentClearBox:
			return "Which box should be cleared?"
		case pkg.IntentMove:
			return "Which box should it go to?"
		}
		return "Which box should it go in?"
	}
	return "Could you repeat that?"
}

// Fill asks for every missing required field across the batch. Each
// question may be asked up to max(2, batch size) times; a question that
// exhausts its retries cancels the entire batch: the second return is
// false and none of the batch's ops should execute. Ops already completed
// in earlier batches are unaffected.
func (f *Filler) Fill(ctx context.Context, ops []pkg.Op) ([]pkg.Op, bool) {
	budget := len(ops)
	if budget < 2 {
		budget = 2
	}

	filled := make([]pkg.Op, 0, len(ops))
	for _, op := range ops {
		done, ok := f.fillOne(ctx, op, budget)
		if !ok {
			return nil, false
		}
		filled = append(filled, done)
	}
	return filled, true
}

func (f *Filler) fillOne(ctx context.Context, op pkg.Op, budget int) (pkg.Op, bool) {
	tries := make(map[string]int)
	for {
		missing := missingFields(op)
		if len(missing) == 0 {
			return op, true
		}
		field := missing[0]
		if tries[field] >= budget {
			return op, false
		}

		// A removal of a single stored unit needs no quantity question.
		if field == FieldQuantity && op.Intent == pkg.IntentRemove && op.ObjectName != "" {
			if item, _, err := f.svc.ResolveSemanticToStoreItem(ctx, op.ObjectName); err == nil && item != nil && item.Quantity <= 1 {
				op.Quantity = "1"
				continue
			}
		}
		tries[field]++

		answer, ok := f.askSlot(ctx, questionFor(op, field))
		if !ok {
			continue
		}
		op = f.applyAnswer(ctx, op, field, answer)
	}
}

// askSlot asks once and retries once more on an unusable transcript.
func (f *Filler) askSlot(ctx context.Context, question string) (string, bool) {
	for attempt := 0; attempt < 2; attempt++ {
		f.voice.Speak(ctx, question)
		reply, err := f.voice.Transcribe(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("transcription failed during slot filling")
			return "", false
		}
		if f.usableTranscript(reply) {
			return reply, true
		}
		question = "Sorry, I did not catch that. " + question
	}
	return "", false
}

// usableTranscript rejects empty replies and the junk phrases the speech
// model hallucinates on silence.
func (f *Filler) usableTranscript(reply string) bool {
	t := strings.ToLower(strings.TrimSpace(reply))
	if t == "" {
		return false
	}
	for _, phrase := range f.noise {
		if phrase != "" && strings.Contains(t, strings.ToLower(phrase)) {
			return false
		}
	}
	return true
}

// applyAnswer folds one answer into the op: model interpretation first,
// raw-transcript heuristics when the model gives nothing back.
func (f *Filler) applyAnswer(ctx context.Context, op pkg.Op, field, answer string) pkg.Op {
	aligned := f.aligner.Normalize(ctx, field, answer, op.Intent, op.ObjectName)

	if aligned.RemoveAll && op.Intent == pkg.IntentRemove {
		op.RemoveAll = true
		return op
	}

	switch field {
	case FieldObjectName:
		if aligned.ObjectName != "" {
			op.ObjectName = f.canon.NormalizeToSingular(aligned.ObjectName)
			return op
		}
		t := strings.ToLower(strings.TrimSpace(answer))
		if op.Intent == pkg.IntentRemove && allWordRe.MatchString(t) {
			op.RemoveAll = true
			return op
		}
		op.ObjectName = f.canon.NormalizeToSingular(answer)

	case FieldQuantity:
		if aligned.Quantity != nil && *aligned.Quantity > 0 {
			op.Quantity = strconv.Itoa(*aligned.Quantity)
			return op
		}
		t := strings.ToLower(strings.TrimSpace(answer))
		if op.Intent == pkg.IntentRemove && allWordRe.MatchString(t) {
			op.RemoveAll = true
			return op
		}
		if m := numRe.FindString(t); m != "" {
			if n, err := strconv.Atoi(m); err == nil && n > 0 {
				op.Quantity = strconv.Itoa(n)
				return op
			}
		}
		for _, tok := range strings.Fields(t) {
			if n, ok := phonetics.Number(strings.Trim(tok, ".,!?")); ok && n > 0 {
				op.Quantity = strconv.Itoa(n)
				return op
			}
		}

	case FieldToBox, FieldFromBox:
		name := aligned.BoxName
		if name == "" {
			name = answer
		}
		resolved := f.resolveBoxAnswer(ctx, op.Intent, field, name)
		if resolved == "" {
			return op
		}
		if field == FieldToBox {
			op.ToBox = resolved
		} else {
			op.FromBox = resolved
		}
	}
	return op
}

// resolveBoxAnswer picks the box name an answer refers to. A new-box name
// (ADD_BOX) only needs extraction; every other intent needs an existing
// box, resolved with the full lookup chain.
func (f *Filler) resolveBoxAnswer(ctx context.Context, intent pkg.Intent, field, answer string) string {
	if intent == pkg.IntentAddBox {
		return ExtractBoxNameFromReply(answer)
	}
	box, err := ResolveSpokenBoxName(ctx, f.svc, answer)
	if err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("box resolution failed")
		return ""
	}
	if box == nil {
		// ADD may name a box that does not exist yet; the executor
		// handles that. Other intents need a real box.
		if intent == pkg.IntentAdd {
			return ExtractBoxNameFromReply(answer)
		}
		return ""
	}
	return box.Name
}
