package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"

	"storagevoice/internal/config"
	"storagevoice/internal/dialogue"
	"storagevoice/internal/inventory"
	"storagevoice/internal/llm"
	"storagevoice/internal/logger"
	"storagevoice/internal/nlu"
	"storagevoice/internal/pipeline"
	"storagevoice/internal/speech"
	"storagevoice/internal/store"
	"storagevoice/internal/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		return err
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	ctx := context.Background()

	st, closeStore, err := buildStore(ctx, cfg, secrets)
	if err != nil {
		return err
	}
	defer closeStore()

	embedder, err := vector.NewOllamaEmbedder(cfg.Embedding.Model)
	if err != nil {
		return err
	}
	search := vector.NewSemanticSearch(embedder, vector.NewMemoryIndex(),
		cfg.Pipeline.MatchThreshold, cfg.Pipeline.SuggestionCount)
	svc := inventory.NewService(st, search)

	if n, err := svc.Reindex(ctx); err != nil {
		logger.Warn().Err(err).Msg("startup reindex incomplete")
	} else if n > 0 {
		logger.Info().Int("items", n).Msg("rebuilt similarity index from store")
	}

	client, err := llm.New(ctx, cfg.Model, secrets)
	if err != nil {
		return err
	}

	voice := buildVoice(cfg, secrets)
	filler := dialogue.NewFiller(svc, voice, nlu.NewAligner(client), cfg.Pipeline.NoisePhrases)
	executor := pipeline.NewExecutor(svc, voice)
	pipe := pipeline.New(nlu.NewExtractor(client), nlu.NewRuleParser(client),
		filler, executor, svc, voice, cfg.Pipeline.ChunkSize)

	logger.Info().
		Str("model", cfg.Model.Name).
		Str("store", cfg.Store.Backend).
		Str("voice", cfg.Voice.Backend).
		Msg("voice inventory ready")

	for {
		utterance, err := voice.Transcribe(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			logger.Error().Err(err).Msg("transcription failed")
			continue
		}
		if utterance == "" {
			continue
		}
		switch strings.ToLower(utterance) {
		case "quit", "exit", "goodbye":
			voice.Speak(ctx, "Goodbye.")
			return nil
		}
		pipe.Run(ctx, utterance)
	}
}

func buildStore(ctx context.Context, cfg *config.Config, secrets *config.Secrets) (store.Store, func(), error) {
	if cfg.Store.Backend == "redis" {
		url := secrets.RedisURL
		if url == "" {
			url = "redis://localhost:6379"
		}
		rs, err := store.NewRedis(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { rs.Close() }, nil
	}
	return store.NewMemory(), func() {}, nil
}

func buildVoice(cfg *config.Config, secrets *config.Secrets) speech.Voice {
	if cfg.Voice.Backend == "openai" && secrets.OpenAIAPIKey != "" {
		return speech.NewOpenAIVoice(secrets.OpenAIAPIKey,
			commandRecorder(strings.Fields(cfg.Voice.RecordCmd)),
			cfg.Voice.Voice,
			strings.Fields(cfg.Voice.PlayCmd))
	}
	return speech.NewConsoleVoice()
}

// commandRecorder runs an external capture command that writes one
// utterance of audio to the named output file.
func commandRecorder(cmd []string) speech.Recorder {
	return func(ctx context.Context) (io.ReadCloser, error) {
		if len(cmd) == 0 {
			return nil, fmt.Errorf("no record command configured")
		}
		f, err := os.CreateTemp("", "utterance-*.wav")
		if err != nil {
			return nil, err
		}
		f.Close()
		args := append(append([]string{}, cmd[1:]...), f.Name())
		if err := exec.CommandContext(ctx, cmd[0], args...).Run(); err != nil {
			os.Remove(f.Name())
			return nil, fmt.Errorf("record: %w", err)
		}
		audio, err := os.Open(f.Name())
		if err != nil {
			os.Remove(f.Name())
			return nil, err
		}
		return &tempAudio{File: audio}, nil
	}
}

type tempAudio struct{ *os.File }

func (t *tempAudio) Close() error {
	err := t.File.Close()
	os.Remove(t.File.Name())
	return err
}
