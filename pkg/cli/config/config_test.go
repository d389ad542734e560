package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
)

func TestLoadAppConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name: "valid configuration",
			content: `
[assistant]
prompt = "You are the assistant of Sakura Animal Clinic."

[[template]]
id = "standard"
name = "Standard SOAP"
description = "General consultation"

[[template]]
id = "dental-cleaning"
name = "Dental"
instructions = "Use the modified Triadan system for teeth."

  [template.sections]
  objective = "Chart every abnormal tooth."
  plan = "Include home care."
`,
		},
		{
			name:    "empty file uses defaults",
			content: "\n",
		},
		{
			name:    "config file not found",
			content: "",
			wantErr: config.ErrConfigNotFound,
		},
		{
			name:    "malformed TOML",
			content: "[[template]\nid = ",
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "duplicate template ID",
			content: `
[[template]]
id = "standard"
name = "Standard"

[[template]]
id = "standard"
name = "Duplicate"
`,
			wantErr: config.ErrDuplicateTemplateID,
		},
		{
			name: "invalid template ID (uppercase)",
			content: `
[[template]]
id = "Standard"
name = "Standard"
`,
			wantErr: config.ErrInvalidTemplateID,
		},
		{
			name: "invalid template ID (underscore)",
			content: `
[[template]]
id = "post_op"
name = "Post-op"
`,
			wantErr: config.ErrInvalidTemplateID,
		},
		{
			name: "missing template name",
			content: `
[[template]]
id = "standard"
`,
			wantErr: config.ErrMissingName,
		},
		{
			name: "unknown section",
			content: `
[[template]]
id = "standard"
name = "Standard"

  [template.sections]
  history = "Everything"
`,
			wantErr: config.ErrInvalidSection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.toml")

			// Only create file if content is not empty
			if tt.content != "" {
				gt.NoError(t, os.WriteFile(configPath, []byte(tt.content), 0644)).Required()
			}

			cfg, err := config.LoadAppConfiguration(configPath)
			if tt.wantErr != nil {
				gt.Error(t, err).Is(tt.wantErr)
				return
			}

			gt.NoError(t, err).Required()
			gt.Value(t, cfg).NotNil()
		})
	}
}

func TestAppConfig_TemplateRegistry(t *testing.T) {
	t.Run("configured templates keep file order", func(t *testing.T) {
		content := `
[[template]]
id = "surgery"
name = "Surgical"

  [template.sections]
  plan = "Include analgesia."

[[template]]
id = "standard"
name = "Standard SOAP"
`
		configPath := filepath.Join(t.TempDir(), "config.toml")
		gt.NoError(t, os.WriteFile(configPath, []byte(content), 0644)).Required()

		cfg, err := config.LoadAppConfiguration(configPath)
		gt.NoError(t, err).Required()

		registry := cfg.TemplateRegistry()
		gt.Value(t, registry.Default().ID).Equal("surgery")
		gt.Array(t, registry.List()).Length(2)

		surgery, err := registry.Get("surgery")
		gt.NoError(t, err).Required()
		gt.Value(t, surgery.Sections["plan"]).Equal("Include analgesia.")
	})

	t.Run("defaults when none configured", func(t *testing.T) {
		cfg := &config.AppConfig{}
		registry := cfg.TemplateRegistry()
		gt.Array(t, registry.List()).Length(len(config.DefaultTemplates()))
		gt.Value(t, registry.Default().ID).Equal("standard")
	})

	t.Run("default templates are valid", func(t *testing.T) {
		cfg := &config.AppConfig{Templates: config.DefaultTemplates()}
		gt.NoError(t, cfg.Validate())
	})
}

func TestApp_Configure(t *testing.T) {
	var app config.App
	cfg, err := app.Configure()
	gt.NoError(t, err).Required()
	gt.Array(t, cfg.Templates).Length(0)
	gt.Value(t, cfg.Assistant.Prompt).Equal("")
}
