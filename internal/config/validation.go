package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate performs comprehensive validation of the configuration
func Validate(cfg *Config) error {
	v := validator.New()

	if err := v.RegisterValidation("environment", validateEnvironment); err != nil {
		return fmt.Errorf("failed to register environment validator: %w", err)
	}
	if err := v.RegisterValidation("loglevel", validateLogLevel); err != nil {
		return fmt.Errorf("failed to register loglevel validator: %w", err)
	}

	if err := v.Struct(cfg); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(errs)
		}
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	return validateCrossFields(cfg)
}

// validateEnvironment restricts environment to known deployment targets.
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	}
	return false
}

// validateLogLevel restricts log level to logrus-supported levels.
func validateLogLevel(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
		return true
	}
	return false
}

// validateCrossFields checks constraints that span multiple fields.
func validateCrossFields(cfg *Config) error {
	if cfg.Documents.Source == "remote" && cfg.Documents.RemoteURL == "" {
		return fmt.Errorf("documents.remote_url is required when documents.source is remote")
	}
	if cfg.Documents.Source == "files" && cfg.Documents.Dir == "" {
		return fmt.Errorf("documents.dir is required when documents.source is files")
	}
	if cfg.Results.Enabled && cfg.Results.StreamURL == "" {
		return fmt.Errorf("results.stream_url is required when results.enabled is true")
	}
	if cfg.Analysis.BoxBiasLookupEnabled && !cfg.DatabaseEnabled() {
		return fmt.Errorf("analysis.box_bias_lookup_enabled requires a configured database")
	}
	if cfg.IsProduction() && cfg.Predictor.APIKey == "" {
		return fmt.Errorf("predictor.api_key is required in production")
	}
	return nil
}

// formatValidationErrors converts validator errors into readable messages
func formatValidationErrors(errs validator.ValidationErrors) error {
	var messages []string
	for _, e := range errs {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation '%s' (value: %v)",
			e.Namespace(), e.Tag(), e.Value(),
		))
	}
	return fmt.Errorf("configuration validation failed: %s", strings.Join(messages, "; "))
}
