package config_test

import (
	"context"
	"os"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	"github.com/pawnotes/pawnotes/pkg/service/soap"
	"github.com/urfave/cli/v3"
)

func TestGemini_Disabled(t *testing.T) {
	cfg := config.NewGeminiForTest("", "us-central1")

	client, err := cfg.Configure(t.Context())
	gt.NoError(t, err)
	gt.Value(t, client).Nil()

	soapClient, err := cfg.ConfigureSOAP(t.Context(), soap.WithAssistantPrompt("Be brief."))
	gt.NoError(t, err)
	gt.Value(t, soapClient).Nil()
}

func TestGemini_Flags(t *testing.T) {
	var cfg config.Gemini
	var names []string
	for _, f := range cfg.Flags() {
		names = append(names, f.Names()[0])
	}
	gt.Array(t, names).Length(3)
	gt.Value(t, names).Equal([]string{"gemini-project", "gemini-location", "gemini-model"})

	cmd := &cli.Command{
		Name:  "test",
		Flags: cfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			return nil
		},
	}
	gt.NoError(t, cmd.Run(t.Context(), []string{"test", "--gemini-project", "vet-project", "--gemini-model", "gemini-2.5-flash"}))

	attrs := map[string]string{}
	for _, a := range cfg.LogAttrs() {
		attrs[a.Key] = a.Value.String()
	}
	gt.Value(t, attrs["project_id"]).Equal("vet-project")
	gt.Value(t, attrs["location"]).Equal("us-central1")
	gt.Value(t, attrs["model"]).Equal("gemini-2.5-flash")
}

func TestGemini_Configure(t *testing.T) {
	projectID, ok := os.LookupEnv("PAWNOTES_TEST_GEMINI_PROJECT")
	if !ok {
		t.Skip("PAWNOTES_TEST_GEMINI_PROJECT is not set")
	}

	cfg := config.NewGeminiForTest(projectID, "us-central1")
	soapClient, err := cfg.ConfigureSOAP(t.Context())
	gt.NoError(t, err).Required()
	gt.V(t, soapClient).NotNil()
}
