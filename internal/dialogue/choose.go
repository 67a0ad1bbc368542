package dialogue

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"storagevoice/internal/speech"
	"storagevoice/pkg"
)

var digitRe = regexp.MustCompile(`\d+`)

var ordinalWords = map[string]int{
	"one": 1, "first": 1, "1st": 1,
	"two": 2, "second": 2, "2nd": 2,
	"three": 3, "third": 3, "3rd": 3,
	"four": 4, "fourth": 4, "4th": 4,
	"five": 5, "fifth": 5, "5th": 5,
	"last": -1,
}

// PromptSelect reads the options to the user and interprets the spoken
// pick: a number, an ordinal word, or the item's name. Nil means the user
// declined or the reply was unintelligible.
func PromptSelect(ctx context.Context, voice speech.Voice, question string, options []pkg.Suggestion) (*pkg.Suggestion, error) {
	if len(options) == 0 {
		return nil, nil
	}
	lines := make([]string, 0, len(options)+1)
	lines = append(lines, question)
	for i, opt := range options {
		lines = append(lines, fmt.Sprintf("%d: %s (%.2f)", i+1, opt.Item.Name, opt.Score))
	}
	voice.Speak(ctx, strings.Join(lines, "\n"))

	reply, err := voice.Transcribe(ctx)
	if err != nil {
		return nil, err
	}
	return SelectFromReply(reply, options), nil
}

// SelectFromReply maps a reply to one of the options, or nil.
func SelectFromReply(reply string, options []pkg.Suggestion) *pkg.Suggestion {
	t := strings.ToLower(strings.TrimSpace(reply))
	if t == "" {
		return nil
	}
	if strings.Contains(t, "none") || strings.Contains(t, "cancel") || t == "no" {
		return nil
	}

	pick := func(n int) *pkg.Suggestion {
		if n == -1 {
			n = len(options)
		}
		if n >= 1 && n <= len(options) {
			return &options[n-1]
		}
		return nil
	}

	for _, tok := range strings.Fields(t) {
		tok = strings.Trim(tok, ".,!?")
		if n, err := strconv.Atoi(tok); err == nil {
			if s := pick(n); s != nil {
				return s
			}
		}
		if n, ok := ordinalWords[tok]; ok {
			if s := pick(n); s != nil {
				return s
			}
		}
	}

	// "option 2" might come through glued to punctuation or other text.
	if m := digitRe.FindString(t); m != "" {
		if n, err := strconv.Atoi(m); err == nil {
			if s := pick(n); s != nil {
				return s
			}
		}
	}

	// Name mention: pick the highest-scored option whose name appears in
	// the reply, or that appears in the reply's words.
	var best *pkg.Suggestion
	for i := range options {
		name := strings.ToLower(options[i].Item.Name)
		if name == "" {
			continue
		}
		if strings.Contains(t, name) || strings.Contains(name, t) {
			if best == nil || options[i].Score > best.Score {
				best = &options[i]
			}
		}
	}
	return best
}
