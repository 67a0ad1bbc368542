package speech

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"storagevoice/internal/logger"
)

// Recorder captures one utterance of audio and returns it as a stream the
// transcription endpoint can consume (wav or mp3).
type Recorder func(ctx context.Context) (io.ReadCloser, error)

// OpenAIVoice transcribes with Whisper and speaks through the TTS
// endpoint, playing the synthesized audio via an external player command.
type OpenAIVoice struct {
	client  openai.Client
	record  Recorder
	voice   string
	playCmd []string
}

func NewOpenAIVoice(apiKey string, record Recorder, voice string, playCmd []string) *OpenAIVoice {
	if voice == "" {
		voice = "alloy"
	}
	return &OpenAIVoice{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		record:  record,
		voice:   voice,
		playCmd: playCmd,
	}
}

func (v *OpenAIVoice) Transcribe(ctx context.Context) (string, error) {
	audio, err := v.record(ctx)
	if err != nil {
		return "", fmt.Errorf("record: %w", err)
	}
	defer audio.Close()
	resp, err := v.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModelWhisper1,
		File:  audio,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (v *OpenAIVoice) Speak(ctx context.Context, text string) {
	resp, err := v.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model: openai.SpeechModelTTS1,
		Voice: openai.AudioSpeechNewParamsVoice(v.voice),
		Input: text,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("speech synthesis failed")
		fmt.Println(text)
		return
	}
	defer resp.Body.Close()
	if err := v.play(ctx, resp.Body); err != nil {
		logger.Warn().Err(err).Msg("audio playback failed")
		fmt.Println(text)
	}
}

func (v *OpenAIVoice) play(ctx context.Context, audio io.Reader) error {
	if len(v.playCmd) == 0 {
		return fmt.Errorf("no player configured")
	}
	f, err := os.CreateTemp("", "speech-*.mp3")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	args := append(append([]string{}, v.playCmd[1:]...), f.Name())
	return exec.CommandContext(ctx, v.playCmd[0], args...).Run()
}
