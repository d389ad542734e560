package config

import (
	"errors"
	"io/fs"
	"os"
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pelletier/go-toml/v2"
	"github.com/urfave/cli/v3"
)

var templateIDPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var soapSections = map[string]bool{
	"subjective": true,
	"objective":  true,
	"assessment": true,
	"plan":       true,
}

// AppConfig is the clinic configuration read from a TOML file
type AppConfig struct {
	Assistant Assistant  `toml:"assistant"`
	Templates []Template `toml:"template"`
}

// Assistant configures the staff assistant
type Assistant struct {
	Prompt string `toml:"prompt"`
}

// Template is a SOAP note template
type Template struct {
	ID           string            `toml:"id"`
	Name         string            `toml:"name"`
	Description  string            `toml:"description"`
	Instructions string            `toml:"instructions"`
	Sections     map[string]string `toml:"sections"`
}

// Validate checks if the Template is valid
func (t *Template) Validate() error {
	if !templateIDPattern.MatchString(t.ID) {
		return goerr.Wrap(ErrInvalidTemplateID, "template ID must be lowercase alphanumerics joined by hyphens", goerr.V(TemplateIDKey, t.ID))
	}
	if t.Name == "" {
		return goerr.Wrap(ErrMissingName, "template name is required", goerr.V(TemplateIDKey, t.ID))
	}
	for section := range t.Sections {
		if !soapSections[section] {
			return goerr.Wrap(ErrInvalidSection, "unknown SOAP section",
				goerr.V(TemplateIDKey, t.ID),
				goerr.V(SectionKey, section))
		}
	}
	return nil
}

// Validate checks if the AppConfig is valid
func (a *AppConfig) Validate() error {
	ids := make(map[string]bool)
	for i, tmpl := range a.Templates {
		if err := tmpl.Validate(); err != nil {
			return goerr.Wrap(err, "invalid template", goerr.V(TemplateIndexKey, i))
		}
		if ids[tmpl.ID] {
			return goerr.Wrap(ErrDuplicateTemplateID, "template ID is used twice", goerr.V(TemplateIDKey, tmpl.ID))
		}
		ids[tmpl.ID] = true
	}
	return nil
}

// LoadAppConfiguration loads the application configuration from a TOML file
func LoadAppConfiguration(path string) (*AppConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config AppConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// DefaultTemplates returns the templates used when no config file
// declares any
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:          "standard",
			Name:        "Standard SOAP",
			Description: "General consultation note",
		},
		{
			ID:          "surgery",
			Name:        "Surgical",
			Description: "Pre- and post-operative note",
			Sections: map[string]string{
				"objective":  "Include anaesthesia, procedure and intra-operative findings.",
				"plan":       "Include analgesia, wound care and recheck schedule.",
				"assessment": "State the surgical outcome and complications, if any.",
			},
		},
	}
}

// TemplateRegistry converts the configured templates into a registry.
// DefaultTemplates fills in when none are configured.
func (a *AppConfig) TemplateRegistry() *model.TemplateRegistry {
	templates := a.Templates
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}

	registry := model.NewTemplateRegistry()
	for _, tmpl := range templates {
		registry.Register(&model.NoteTemplate{
			ID:           tmpl.ID,
			Name:         tmpl.Name,
			Description:  tmpl.Description,
			Instructions: tmpl.Instructions,
			Sections:     tmpl.Sections,
		})
	}
	return registry
}

// App holds the CLI flag pointing at the configuration file
type App struct {
	path string
}

func (x *App) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the clinic configuration TOML file (note templates, assistant prompt)",
			Sources:     cli.EnvVars("PAWNOTES_CONFIG"),
			Destination: &x.path,
		},
	}
}

// Configure loads the configuration file. Without a path, the built-in
// defaults are returned.
func (x *App) Configure() (*AppConfig, error) {
	if x.path == "" {
		return &AppConfig{}, nil
	}
	return LoadAppConfiguration(x.path)
}
