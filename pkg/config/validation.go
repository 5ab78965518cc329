package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Strategy-specific parameters must resolve; ResolveBind reports the
	// precise failure (missing path, negative fd, out-of-range port).
	if _, err := ResolveBind(cfg); err != nil {
		return fmt.Errorf("bind: %w", err)
	}

	// Header names must be unique so a replacement cycle never emits
	// conflicting values for the same header.
	names := make(map[string]bool)
	for i, h := range cfg.Headers {
		if names[h.Name] {
			return fmt.Errorf("headers[%d]: duplicate header name %q", i, h.Name)
		}
		names[h.Name] = true
	}

	// Certificate and key paths come as a pair.
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		return fmt.Errorf("tls: cert_file and key_file must both be set or both be empty")
	}

	if cfg.Server.AcceptRate.RequestsPerSecond > 0 && cfg.Server.AcceptRate.Burst == 0 {
		return fmt.Errorf("server.accept_rate: burst must be > 0 when requests_per_second is set")
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
