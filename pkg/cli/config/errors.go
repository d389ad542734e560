package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound       = goerr.New("configuration file not found")
	ErrInvalidConfig        = goerr.New("invalid configuration")
	ErrDuplicateTemplateID  = goerr.New("duplicate template ID")
	ErrInvalidTemplateID    = goerr.New("invalid template ID format")
	ErrInvalidSection       = goerr.New("invalid SOAP section")
	ErrMissingName          = goerr.New("name is required")
	ErrInvalidLogLevel      = goerr.New("invalid log level")
	ErrInvalidLogFormat     = goerr.New("invalid log format")
	ErrMissingConfiguration = goerr.New("required configuration is missing")
)

// Context keys for error values
const (
	ConfigPathKey    = "config_path"
	TemplateIDKey    = "template_id"
	TemplateIndexKey = "template_index"
	SectionKey       = "section"
)
