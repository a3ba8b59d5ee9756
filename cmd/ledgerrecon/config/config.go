// Package config translates CLI inputs into the component configurations
// the review pipeline consumes.
package config

import (
	"fmt"
	"time"

	"ocr-ledger-reconciliation/internal/matcher"
	"ocr-ledger-reconciliation/internal/reporter"
)

// CreateReportConfig builds the reporter configuration for the requested
// output format.
func CreateReportConfig(format string, includeDetails bool) (*reporter.ReportConfig, error) {
	outputFormat := reporter.OutputFormat(format)
	if !outputFormat.IsValid() {
		return nil, fmt.Errorf("invalid output format '%s'. Valid formats: console, json", format)
	}

	config := reporter.DefaultReportConfig()
	config.Format = outputFormat
	config.IncludeAccountDetails = includeDetails
	return config, nil
}

// CreateMatcherConfig builds the candidate-ranking configuration. Strict
// mode raises the confidence thresholds for noisy extractions.
func CreateMatcherConfig(strict bool) *matcher.Config {
	if strict {
		return matcher.StrictConfig()
	}
	return matcher.DefaultConfig()
}

// ParseBusinessDate parses the --date flag. An empty value means today.
func ParseBusinessDate(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}

	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format. Use YYYY-MM-DD: %w", err)
	}
	return parsed, nil
}
