package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/service/audio"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdRecord() *cli.Command {
	var caseID string
	var userID string
	var templateID string
	var generate bool
	var save bool
	var ffmpegCommand string
	var inputFormat string
	var inputDevice string
	var sampleRate int
	var appCfg config.App
	var repoCfg config.Repository
	var geminiCfg config.Gemini
	var deepgramCfg config.Deepgram

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "case",
			Usage:       "ID of the case to record for",
			Required:    true,
			Destination: &caseID,
		},
		&cli.StringFlag{
			Name:        "user",
			Usage:       "User ID owning the case",
			Required:    true,
			Sources:     cli.EnvVars("PAWNOTES_USER"),
			Destination: &userID,
		},
		&cli.BoolFlag{
			Name:        "soap",
			Usage:       "Generate a SOAP note from the recording",
			Destination: &generate,
		},
		&cli.StringFlag{
			Name:        "template",
			Usage:       "Note template ID (defaults to the first configured template)",
			Destination: &templateID,
		},
		&cli.BoolFlag{
			Name:        "save",
			Usage:       "Save the recording (and note) to the case",
			Destination: &save,
		},
		&cli.StringFlag{
			Name:        "ffmpeg",
			Usage:       "ffmpeg executable",
			Category:    "Audio",
			Value:       audio.DefaultCommand,
			Destination: &ffmpegCommand,
		},
		&cli.StringFlag{
			Name:        "audio-format",
			Usage:       "ffmpeg input format (pulse, alsa, avfoundation, dshow)",
			Category:    "Audio",
			Destination: &inputFormat,
		},
		&cli.StringFlag{
			Name:        "audio-device",
			Usage:       "ffmpeg input device",
			Category:    "Audio",
			Destination: &inputDevice,
		},
		&cli.IntFlag{
			Name:        "sample-rate",
			Usage:       "Capture sample rate in Hz",
			Category:    "Audio",
			Value:       audio.DefaultSampleRate,
			Destination: &sampleRate,
		},
	}
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, geminiCfg.Flags()...)
	flags = append(flags, deepgramCfg.Flags()...)

	return &cli.Command{
		Name:    "record",
		Aliases: []string{"r"},
		Usage:   "Record a consultation from the local microphone with live transcription",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			app, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load configuration")
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			provider, err := deepgramCfg.Configure()
			if err != nil {
				return err
			}
			if provider == nil {
				return goerr.Wrap(config.ErrMissingConfiguration, "--deepgram-api-key is required for recording")
			}

			ucOpts := []usecase.Option{
				usecase.WithTemplates(app.TemplateRegistry()),
				usecase.WithTranscriptionProvider(provider),
			}
			if generate {
				soapClient, err := geminiCfg.ConfigureSOAP(ctx)
				if err != nil {
					return err
				}
				if soapClient == nil {
					return goerr.Wrap(config.ErrMissingConfiguration, "--gemini-project is required for --soap")
				}
				ucOpts = append(ucOpts, usecase.WithNoteGenerator(soapClient))
			}
			uc := usecase.New(repo, ucOpts...)

			micOpts := []audio.Option{
				audio.WithCommand(ffmpegCommand),
				audio.WithSampleRate(sampleRate),
			}
			if inputFormat != "" || inputDevice != "" {
				micOpts = append(micOpts, audio.WithInput(inputFormat, inputDevice))
			}

			ctx = auth.ContextWithToken(ctx, auth.NewToken(userID, "", userID))
			return runRecord(ctx, uc, model.CaseID(caseID), audio.New(micOpts...), recordOptions{
				templateID: templateID,
				generate:   generate,
				save:       save,
			})
		},
	}
}

type recordOptions struct {
	templateID string
	generate   bool
	save       bool
}

func runRecord(ctx context.Context, uc *usecase.UseCases, caseID model.CaseID, mic *audio.FFmpeg, opts recordOptions) error {
	logger := logging.From(ctx)
	sink := newTerminalSink(os.Stdout)

	session, err := uc.Capture.Open(ctx, caseID, mic, sink)
	if err != nil {
		return err
	}

	// first interrupt stops the recording, a second one aborts
	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := session.Start(ctx); err != nil {
		return goerr.Wrap(err, "failed to start recording")
	}
	logger.Info("Recording, press Ctrl+C to stop", "case_id", caseID)

	<-stopCtx.Done()
	stop()

	recording, err := session.Stop(ctx)
	if err != nil && !errors.Is(err, usecase.ErrNoActiveCapture) {
		return goerr.Wrap(err, "failed to stop recording")
	}
	if recording == nil {
		logger.Warn("Nothing was transcribed", "case_id", caseID)
		return nil
	}

	if opts.generate {
		action, err := session.GenerateNote(ctx, opts.templateID)
		if err != nil {
			return goerr.Wrap(err, "failed to generate SOAP note")
		}
		printSOAPNote(os.Stdout, action.SOAP)
	}

	if opts.save {
		saved, err := session.Save(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to save case")
		}
		logger.Info("Case saved", "case_id", saved.ID, "actions", len(saved.Actions))
	}

	return nil
}
