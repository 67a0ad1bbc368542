// Package phonetics maps spoken forms of letters and numbers to their
// canonical values. Transcripts routinely render "box B" as "box bee" and
// "two" as "to", so every place that consumes a spoken box name or quantity
// goes through these tables.
package phonetics

import "strings"

// spokenLetters maps common transcriptions of spelled letters to the letter
// itself (lowercase). Includes frequent mishearings observed in transcripts.
var spokenLetters = map[string]string{
	"a": "a", "ay": "a",
	"b": "b", "be": "b", "bee": "b",
	"c": "c", "cee": "c", "see": "c", "sea": "c",
	"d": "d", "dee": "d",
	"e": "e", "ee": "e",
	"f": "f", "ef": "f",
	"g": "g", "gee": "g",
	"h": "h", "aitch": "h",
	"i": "i",
	"j": "j", "jay": "j",
	"k": "k", "kay": "k",
	"l": "l", "el": "l", "ell": "l",
	"m": "m", "em": "m",
	"n": "n", "en": "n",
	"o": "o",
	"p": "p", "pee": "p",
	"q": "q", "cue": "q", "queue": "q",
	"r": "r", "ar": "r", "are": "r",
	"s": "s", "ess": "s",
	"t": "t", "tee": "t",
	"u": "u", "you": "u",
	"v": "v", "vee": "v",
	"w": "w", "double u": "w",
	"x": "x",
	"y": "y", "why": "y",
	"z": "z", "zee": "z", "zed": "z",
	// mishearings of "box c" seen in the wild
	"boxie": "c", "boxy": "c",
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20,
	"a": 1, "an": 1, "some": 1,
	"pair": 2, "couple": 2,
}

// Letter maps a spoken token to a single lowercase letter. The second return
// is false when the token is not a recognized spelling.
func Letter(token string) (string, bool) {
	l, ok := spokenLetters[strings.ToLower(strings.TrimSpace(token))]
	return l, ok
}

// UpperLetter is Letter with an uppercase result, matching box display names.
func UpperLetter(token string) (string, bool) {
	l, ok := Letter(token)
	if !ok {
		return "", false
	}
	return strings.ToUpper(l), true
}

// Number maps a spoken number word ("two", "a", "couple") to its integer
// value. Digits are not handled here; callers check for those first.
func Number(token string) (int, bool) {
	n, ok := numberWords[strings.ToLower(strings.TrimSpace(token))]
	return n, ok
}
