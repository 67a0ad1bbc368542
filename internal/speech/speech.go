// Package speech abstracts the voice boundary. The console backend types
// and prints; the OpenAI backend records, transcribes with Whisper, and
// speaks through the TTS endpoint.
package speech

import "context"

// Transcriber captures one utterance from the user and returns its text.
type Transcriber interface {
	Transcribe(ctx context.Context) (string, error)
}

// Speaker voices a response. Speaking is best-effort; implementations log
// failures instead of returning them so a broken audio path never stalls
// the pipeline.
type Speaker interface {
	Speak(ctx context.Context, text string)
}

// Voice is a full duplex speech channel.
type Voice interface {
	Transcriber
	Speaker
}
