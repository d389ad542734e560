package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/service/deepgram"
	"github.com/urfave/cli/v3"
)

// Deepgram configures the streaming speech recognizer
type Deepgram struct {
	apiKey   string
	model    string
	language string
	baseURL  string
}

func (x *Deepgram) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "deepgram-api-key",
			Usage:       "Deepgram API key for live transcription",
			Category:    "Transcription",
			Sources:     cli.EnvVars("PAWNOTES_DEEPGRAM_API_KEY"),
			Destination: &x.apiKey,
		},
		&cli.StringFlag{
			Name:        "deepgram-model",
			Usage:       "Deepgram model",
			Category:    "Transcription",
			Value:       deepgram.DefaultModel,
			Sources:     cli.EnvVars("PAWNOTES_DEEPGRAM_MODEL"),
			Destination: &x.model,
		},
		&cli.StringFlag{
			Name:        "deepgram-language",
			Usage:       "Spoken language (BCP-47)",
			Category:    "Transcription",
			Value:       "en",
			Sources:     cli.EnvVars("PAWNOTES_DEEPGRAM_LANGUAGE"),
			Destination: &x.language,
		},
		&cli.StringFlag{
			Name:        "deepgram-url",
			Usage:       "Deepgram streaming endpoint",
			Category:    "Transcription",
			Value:       deepgram.DefaultBaseURL,
			Sources:     cli.EnvVars("PAWNOTES_DEEPGRAM_URL"),
			Destination: &x.baseURL,
		},
	}
}

func (x Deepgram) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("enabled", x.apiKey != ""),
		slog.String("model", x.model),
		slog.String("language", x.language),
	)
}

// Configure creates the provider. Returns nil without an API key, which
// disables live capture.
func (x *Deepgram) Configure() (*deepgram.Provider, error) {
	if x.apiKey == "" {
		return nil, nil
	}

	provider, err := deepgram.New(x.apiKey,
		deepgram.WithBaseURL(x.baseURL),
		deepgram.WithModel(x.model),
		deepgram.WithLanguage(x.language),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Deepgram provider")
	}
	return provider, nil
}
