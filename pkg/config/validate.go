package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the configuration field
	// (e.g., "providers[0].name").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. It implements the error interface and provides access to
// all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
var validFormats = map[string]bool{"json": true, "text": true}
var validBackends = map[string]bool{"memory": true, "sqlite": true, "none": true}
var validTypes = map[string]bool{"anthropic": true, "openai": true, "generic": true, "serper": true, "brave": true}
var validFamilies = map[string]bool{FamilyChat: true, FamilySearch: true}

// Validate validates the entire configuration and returns a
// ValidationError if any rules fail. All errors are collected and returned
// together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateBudget(&cfg.Budget)...)
	errs = append(errs, validateRateLimit("ratelimit", &cfg.RateLimit)...)
	errs = append(errs, validateSearch(&cfg.Search)...)
	errs = append(errs, validateProviders(cfg.Providers)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateLogging(cfg *LoggingConfig) []FieldError {
	var errs []FieldError
	if !validLevels[cfg.Level] {
		errs = append(errs, FieldError{
			Field:   "logging.level",
			Message: fmt.Sprintf("must be one of debug, info, warn, error (got %q)", cfg.Level),
		})
	}
	if !validFormats[cfg.Format] {
		errs = append(errs, FieldError{
			Field:   "logging.format",
			Message: fmt.Sprintf("must be json or text (got %q)", cfg.Format),
		})
	}
	return errs
}

func validateBudget(cfg *BudgetConfig) []FieldError {
	var errs []FieldError
	if cfg.Ceiling < 0 {
		errs = append(errs, FieldError{
			Field:   "budget.ceiling",
			Message: "cannot be negative",
		})
	}
	if cfg.Period != "" {
		if _, err := cron.ParseStandard(cfg.Period); err != nil {
			errs = append(errs, FieldError{
				Field:   "budget.period",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	return errs
}

func validateRateLimit(field string, cfg *RateLimitConfig) []FieldError {
	var errs []FieldError
	if cfg.Requests < 0 {
		errs = append(errs, FieldError{
			Field:   field + ".requests",
			Message: "cannot be negative",
		})
	}
	if cfg.Window < 0 {
		errs = append(errs, FieldError{
			Field:   field + ".window",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateSearch(cfg *SearchConfig) []FieldError {
	var errs []FieldError
	if !validBackends[cfg.CacheBackend] {
		errs = append(errs, FieldError{
			Field:   "search.cache_backend",
			Message: fmt.Sprintf("must be memory, sqlite, or none (got %q)", cfg.CacheBackend),
		})
	}
	if cfg.CacheBackend == "sqlite" && cfg.CachePath == "" {
		errs = append(errs, FieldError{
			Field:   "search.cache_path",
			Message: "required for the sqlite backend",
		})
	}
	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "search.cache_ttl",
			Message: "cannot be negative",
		})
	}
	if cfg.CacheMaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "search.cache_max_entries",
			Message: "cannot be negative",
		})
	}
	return errs
}

func validateProviders(providers []ProviderEntry) []FieldError {
	var errs []FieldError
	seen := make(map[string]bool, len(providers))

	for i, p := range providers {
		field := fmt.Sprintf("providers[%d]", i)

		if p.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "is required"})
		} else if seen[p.Name] {
			errs = append(errs, FieldError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate provider name %q", p.Name),
			})
		}
		seen[p.Name] = true

		if !validTypes[p.Type] {
			errs = append(errs, FieldError{
				Field:   field + ".type",
				Message: fmt.Sprintf("must be one of anthropic, openai, generic, serper, brave (got %q)", p.Type),
			})
		}
		if !validFamilies[p.Family] {
			errs = append(errs, FieldError{
				Field:   field + ".family",
				Message: fmt.Sprintf("must be chat or search (got %q)", p.Family),
			})
		}
		if validTypes[p.Type] && validFamilies[p.Family] && defaultFamilies[p.Type] != p.Family {
			errs = append(errs, FieldError{
				Field:   field + ".family",
				Message: fmt.Sprintf("adapter type %q serves the %s family", p.Type, defaultFamilies[p.Type]),
			})
		}
		if p.Family == FamilyChat && p.Model == "" {
			errs = append(errs, FieldError{Field: field + ".model", Message: "is required for chat providers"})
		}
		if p.BaseURL != "" {
			if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   field + ".base_url",
					Message: fmt.Sprintf("must be an absolute URL (got %q)", p.BaseURL),
				})
			}
		}
		if p.Priority < 0 {
			errs = append(errs, FieldError{Field: field + ".priority", Message: "cannot be negative"})
		}
		if p.Timeout < 0 {
			errs = append(errs, FieldError{Field: field + ".timeout", Message: "cannot be negative"})
		}
		if p.MaxRetries < 0 {
			errs = append(errs, FieldError{Field: field + ".max_retries", Message: "cannot be negative"})
		}
		if p.PaceTPM < 0 {
			errs = append(errs, FieldError{Field: field + ".pace_tpm", Message: "cannot be negative"})
		}
		if p.HealthCheckInterval < 0 {
			errs = append(errs, FieldError{Field: field + ".health_check_interval", Message: "cannot be negative"})
		}
		if p.RateLimit != nil {
			errs = append(errs, validateRateLimit(field+".ratelimit", p.RateLimit)...)
		}
	}

	return errs
}
