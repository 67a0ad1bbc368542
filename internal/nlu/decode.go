package nlu

import (
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"storagevoice/pkg"
)

// rawOp is the wire shape exchanged with the language-understanding backend.
// Quantity is decoded loosely because models return it as int, float, string,
// or null interchangeably.
type rawOp struct {
	Intent     string `json:"intent"`
	ObjectName string `json:"object_name"`
	Quantity   any    `json:"quantity"`
	ToBox      string `json:"to_box"`
	FromBox    string `json:"from_box"`
	BoxName    string `json:"box_name"` // legacy alias for to_box on box intents
	RemoveAll  bool   `json:"remove_all"`
	Everything bool   `json:"everything"`
}

// stripFences removes a surrounding Markdown code fence, with or without a
// "json" language tag, so fenced model output still parses.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") && strings.HasSuffix(s, "```") && len(s) >= 6 {
		s = strings.TrimSpace(s[3 : len(s)-3])
		if strings.HasPrefix(strings.ToLower(s), "json") {
			s = strings.TrimSpace(s[4:])
		}
	}
	return s
}

// coerceQuantity turns whatever the model sent into decimal text, or "" when
// it isn't a usable non-negative number.
func coerceQuantity(v any) string {
	switch q := v.(type) {
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n < 0 {
			return ""
		}
		return strconv.Itoa(n)
	case float64:
		if q < 0 {
			return ""
		}
		return strconv.Itoa(int(q))
	case int:
		if q < 0 {
			return ""
		}
		return strconv.Itoa(q)
	default:
		return ""
	}
}

func (r rawOp) toOp() pkg.Op {
	toBox := strings.TrimSpace(r.ToBox)
	if toBox == "" {
		toBox = strings.TrimSpace(r.BoxName)
	}
	return pkg.Op{
		Intent:     pkg.Intent(strings.ToUpper(strings.TrimSpace(r.Intent))),
		ObjectName: strings.TrimSpace(r.ObjectName),
		Quantity:   coerceQuantity(r.Quantity),
		ToBox:      toBox,
		FromBox:    strings.TrimSpace(r.FromBox),
		RemoveAll:  r.RemoveAll,
		Everything: r.Everything,
	}
}

// decodeOpList parses a JSON array of op objects. Any failure yields a nil
// slice, never an error: parse failures degrade to "no structured result".
func decodeOpList(content string) []pkg.Op {
	var raws []rawOp
	if err := sonic.Unmarshal([]byte(stripFences(content)), &raws); err != nil {
		return nil
	}
	ops := make([]pkg.Op, 0, len(raws))
	for _, r := range raws {
		ops = append(ops, r.toOp())
	}
	return ops
}

// decodeOp parses a single op object, degrading to a zero Op on failure.
func decodeOp(content string) (pkg.Op, bool) {
	var raw rawOp
	if err := sonic.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return pkg.Op{}, false
	}
	return raw.toOp(), true
}
