// File: internal/service/result.go
package service

import "terrable/internal/archive"

// Result codes reported by the services
const (
	CodeListedModules       = "LISTED_MODULES"
	CodeListedVersions      = "LISTED_VERSIONS"
	CodeListedLatestVersion = "LISTED_LATEST_VERSION"
	CodePublished           = "PUBLISHED"
)

// CommandResult is the outcome of a top-level operation, handed to the formatter for rendering
type CommandResult struct {
	Code    string         `json:"code" yaml:"code"`
	Message string         `json:"message" yaml:"message"`
	Data    map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
}

type OutcomeStatus string

const (
	StatusPublished OutcomeStatus = "published"
	StatusDryRun    OutcomeStatus = "dry-run"
	StatusUnchanged OutcomeStatus = "unchanged"
	StatusDeclined  OutcomeStatus = "declined"
	StatusFailed    OutcomeStatus = "failed"
)

// ModuleOutcome records what happened to one module directory during a publish run.
// Version and Key refer to the version that was (or would have been) written; for
// unchanged modules they point at the existing latest version.
type ModuleOutcome struct {
	Module     string              `json:"module" yaml:"module"`
	Status     OutcomeStatus       `json:"status" yaml:"status"`
	Version    int                 `json:"version,omitempty" yaml:"version,omitempty"`
	Key        string              `json:"key,omitempty" yaml:"key,omitempty"`
	SourceURL  string              `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	Comparison *archive.Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Error      string              `json:"error,omitempty" yaml:"error,omitempty"`
}
