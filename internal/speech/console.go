package speech

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// ConsoleVoice reads utterances from stdin and prints responses. It is the
// default backend and the one tests script against.
type ConsoleVoice struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewConsoleVoice() *ConsoleVoice {
	return &ConsoleVoice{in: bufio.NewScanner(os.Stdin), out: os.Stdout}
}

// NewConsoleVoiceWith wires explicit streams, for tests.
func NewConsoleVoiceWith(in io.Reader, out io.Writer) *ConsoleVoice {
	return &ConsoleVoice{in: bufio.NewScanner(in), out: out}
}

func (c *ConsoleVoice) Transcribe(ctx context.Context) (string, error) {
	fmt.Fprint(c.out, "> ")
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *ConsoleVoice) Speak(ctx context.Context, text string) {
	fmt.Fprintln(c.out, text)
}
