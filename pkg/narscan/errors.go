package narscan

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Pre-flight errors (configuration, cost guard, rule compilation, empty
// target list) abort the run before any target is processed. All other
// sentinels describe a failure of a single target and never abort the batch.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoPattern indicates neither a needle nor a rule set was given.
	ErrNoPattern = errors.New("no matcher provided")

	// ErrNoTargets indicates the target source produced no store paths.
	ErrNoTargets = errors.New("no paths to check")

	// ErrCostGuardAbort indicates a large run was refused to avoid egress costs.
	ErrCostGuardAbort = errors.New("refusing possibly expensive run")

	// ErrRuleCompile indicates the rule set could not be compiled.
	ErrRuleCompile = errors.New("rule set compilation failed")

	// ErrNotImplemented indicates a feature is not yet implemented.
	ErrNotImplemented = errors.New("not implemented")

	// ErrInvalidPath indicates a target is not a /nix/store/<hash>-<name> path.
	ErrInvalidPath = errors.New("invalid store path")

	// ErrMetadataFetch indicates the narinfo could not be retrieved.
	ErrMetadataFetch = errors.New("narinfo fetch failed")

	// ErrMetadataParse indicates the narinfo is missing a required key or is malformed.
	ErrMetadataParse = errors.New("narinfo parse failed")

	// ErrUnsupportedCompression indicates the narinfo names an unhandled algorithm.
	ErrUnsupportedCompression = errors.New("unsupported compression")

	// ErrArchiveFetch indicates the NAR download failed.
	ErrArchiveFetch = errors.New("nar fetch failed")

	// ErrArchiveParse indicates the decompressed payload is not a valid NAR.
	ErrArchiveParse = errors.New("invalid nar")

	// ErrMatchEngine indicates the matcher failed while scanning a file.
	ErrMatchEngine = errors.New("match engine failure")

	// ErrMatchTimeout indicates a scan exceeded its time budget.
	ErrMatchTimeout = errors.New("match timed out")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrNoPattern),
		errors.Is(err, ErrRuleCompile):
		return ExitConfigError
	case errors.Is(err, ErrNoTargets):
		return ExitNoTargets
	case errors.Is(err, ErrCostGuardAbort):
		return ExitCostGuardAbort
	case errors.Is(err, ErrNotImplemented):
		return ExitNotImplemented
	}

	// cobra reports flag and argument problems as plain errors
	errStr := err.Error()
	if strings.Contains(errStr, "unknown flag") ||
		strings.Contains(errStr, "unknown shorthand flag") ||
		strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "accepts ") ||
		strings.Contains(errStr, "if any flags in the group") {
		return ExitUsageError
	}

	return ExitGeneralError
}
