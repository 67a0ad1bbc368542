package nlu

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"storagevoice/internal/logger"
	"storagevoice/pkg"
)

// Aligned is the model's interpretation of one slot-filling answer.
// Fields the answer did not speak to stay at their zero value.
type Aligned struct {
	RemoveAll  bool
	Quantity   *int
	BoxName    string
	ObjectName string
}

type rawAligned struct {
	RemoveAll  bool   `json:"remove_all"`
	Quantity   any    `json:"quantity"`
	BoxName    string `json:"box_name"`
	ObjectName string `json:"object_name"`
}

// Aligner interprets free-form answers to slot questions. A failed call or
// unparseable reply yields the zero Aligned; the dialogue layer then falls
// back to its own heuristics on the raw transcript.
type Aligner struct {
	llm Client
}

func NewAligner(client Client) *Aligner {
	return &Aligner{llm: client}
}

// Normalize interprets answer as a reply to the question asking for field,
// in the context of the pending op.
func (a *Aligner) Normalize(ctx context.Context, field, answer string, intent pkg.Intent, objectName string) Aligned {
	input := fmt.Sprintf("Field: %s\nIntent: %s\nObject: %s\nAnswer: %q", field, intent, objectName, answer)
	content, err := a.llm.Generate(ctx, alignInstruction, input)
	if err != nil {
		logger.Warn().Err(err).Str("field", field).Msg("answer alignment call failed")
		return Aligned{}
	}
	var raw rawAligned
	if err := sonic.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		logger.Warn().Str("raw", content).Msg("answer alignment returned unparseable output")
		return Aligned{}
	}
	out := Aligned{
		RemoveAll:  raw.RemoveAll,
		BoxName:    raw.BoxName,
		ObjectName: raw.ObjectName,
	}
	if q := coerceQuantity(raw.Quantity); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			out.Quantity = &n
		}
	}
	return out
}
