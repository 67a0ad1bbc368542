package pipeline

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"storagevoice/internal/dialogue"
	"storagevoice/internal/inventory"
	"storagevoice/internal/logger"
	"storagevoice/internal/speech"
	"storagevoice/pkg"
)

// OpExtractor decomposes an utterance into ops; empty means it found none.
type OpExtractor interface {
	Extract(ctx context.Context, text string) []pkg.Op
}

// IntentParser is the single-op fallback when extraction finds nothing.
type IntentParser interface {
	Parse(ctx context.Context, text string) pkg.Op
}

// Pipeline owns one utterance end to end. A run in progress makes the
// pipeline busy; triggers arriving while busy are dropped with a notice
// rather than queued, since a stale voice command is worse than no command.
type Pipeline struct {
	busy      sync.Mutex
	extractor OpExtractor
	parser    IntentParser
	filler    *dialogue.Filler
	executor  *Executor
	svc       *inventory.Service
	voice     speech.Voice
	chunkSize int
}

func New(extractor OpExtractor, parser IntentParser, filler *dialogue.Filler, executor *Executor, svc *inventory.Service, voice speech.Voice, chunkSize int) *Pipeline {
	if chunkSize < 1 {
		chunkSize = 5
	}
	return &Pipeline{
		extractor: extractor,
		parser:    parser,
		filler:    filler,
		executor:  executor,
		svc:       svc,
		voice:     voice,
		chunkSize: chunkSize,
	}
}

// Run processes one utterance, speaking each chunk's outcome before the
// next chunk starts. The joined summary of everything spoken is returned
// for logging and tests.
func (p *Pipeline) Run(ctx context.Context, text string) string {
	if !p.busy.TryLock() {
		logger.Warn().Msg("utterance dropped; a run is already in progress")
		return ""
	}
	defer p.busy.Unlock()

	ops := p.extractor.Extract(ctx, text)
	if len(ops) == 0 {
		op := p.parser.Parse(ctx, text)
		if !op.Intent.Valid() {
			msg := "Sorry, I did not understand that."
			p.voice.Speak(ctx, msg)
			return msg
		}
		ops = []pkg.Op{op}
	}

	ops = dialogue.NormalizeBatch(ops)
	multiMode := len(ops) > 1

	// Slot filling and execution run a chunk at a time, each chunk's
	// outcome spoken before the next begins. A chunk whose dialogue
	// cannot complete cancels the rest of the run; chunks already
	// executed stand.
	var messages []string
	for start := 0; start < len(ops); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(ops) {
			end = len(ops)
		}
		filled, ok := p.filler.Fill(ctx, ops[start:end])
		if !ok {
			notice := "cancelled the remaining requests; I could not get the details I needed"
			messages = append(messages, notice)
			p.voice.Speak(ctx, summarize([]string{notice}))
			break
		}
		var chunkMessages []string
		for _, op := range filled {
			chunkMessages = append(chunkMessages, p.runOp(ctx, op, multiMode))
		}
		if spoken := summarize(chunkMessages); spoken != "" {
			p.voice.Speak(ctx, spoken)
		}
		messages = append(messages, chunkMessages...)
	}

	return summarize(messages)
}

// runOp executes one op, handling the disambiguation round trip when the
// executor reports an ambiguous target.
func (p *Pipeline) runOp(ctx context.Context, op pkg.Op, multiMode bool) string {
	res := p.executor.Execute(ctx, op, multiMode)
	if len(res.Suggestions) == 0 {
		return res.Message
	}

	sel, err := dialogue.PromptSelect(ctx, p.voice,
		"I could not find an exact match for "+res.Pending.ObjectName+". Did you mean one of these?",
		res.Suggestions)
	if err != nil || sel == nil {
		return "okay, leaving " + res.Pending.ObjectName + " alone"
	}
	resolved, err := p.svc.ResolveCandidateToStoreItem(ctx, sel.Item)
	if err != nil || resolved == nil {
		return "I could not find " + sel.Item.Name + " anymore"
	}

	retry := res.Pending
	retry.ResolvedItem = resolved
	if retry.Quantity == "" && !retry.RemoveAll {
		retry.Quantity = "1"
	}
	if retry.ToBox == "" {
		if name, err := p.svc.BoxNameByID(ctx, resolved.BoxID); err == nil {
			retry.ToBox = name
		}
	}
	// The selection settles the target; never ask again on the retry.
	return p.executor.Execute(ctx, retry, true).Message
}

// summarize joins the per-op messages into one spoken line.
func summarize(messages []string) string {
	parts := messages[:0]
	for _, m := range messages {
		if strings.TrimSpace(m) != "" {
			parts = append(parts, m)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	s := strings.Join(parts, "; ")
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
