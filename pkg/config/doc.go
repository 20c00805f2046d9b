// Package config defines the tribune gateway's YAML configuration: the
// ordered provider list, the budget period, rate-limit windows, the search
// cache, and model pricing.
//
// Loading follows a fixed layering: parse the file, apply defaults,
// apply TRIBUNE_-prefixed environment overrides, validate the result.
// Validation errors are collected and reported together rather than one at
// a time.
//
// The pricing table is the one hot-reloadable piece: PricingWatcher
// watches the configured pricing file and atomically swaps the in-memory
// table on change. Everything else, the registry composition and
// priorities included, is fixed for the process lifetime.
package config
