package narscan_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/vvka-141/narscan/pkg/narscan"
)

func TestExitCodeForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil error", nil, narscan.ExitSuccess},
		{"general error", errors.New("something went wrong"), narscan.ExitGeneralError},
		{"unknown flag", errors.New("unknown flag: --foo"), narscan.ExitUsageError},
		{"unknown shorthand flag", errors.New("unknown shorthand flag: 'x' in -x"), narscan.ExitUsageError},
		{"invalid argument", errors.New("invalid argument \"abc\" for \"--parallelism\""), narscan.ExitUsageError},
		{"mutually exclusive flags", errors.New("if any flags in the group [needle rules] are set none of the others can be; [needle rules] were all set"), narscan.ExitUsageError},
		{"invalid config", fmt.Errorf("bad: %w", narscan.ErrInvalidConfig), narscan.ExitConfigError},
		{"no pattern", narscan.ErrNoPattern, narscan.ExitConfigError},
		{"rule compile", fmt.Errorf("rules.yaml: %w", narscan.ErrRuleCompile), narscan.ExitConfigError},
		{"no targets", narscan.ErrNoTargets, narscan.ExitNoTargets},
		{"cost guard", fmt.Errorf("region not-aws: %w", narscan.ErrCostGuardAbort), narscan.ExitCostGuardAbort},
		{"not implemented", narscan.ErrNotImplemented, narscan.ExitNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := narscan.ExitCodeForError(tt.err); got != tt.want {
				t.Errorf("ExitCodeForError(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodeForError_JoinedPreflightErrors(t *testing.T) {
	err := errors.Join(
		fmt.Errorf("parallelism must be positive: %w", narscan.ErrInvalidConfig),
		fmt.Errorf("no matcher: %w", narscan.ErrNoPattern),
	)
	if got := narscan.ExitCodeForError(err); got != narscan.ExitConfigError {
		t.Errorf("ExitCodeForError(joined) = %d, want %d", got, narscan.ExitConfigError)
	}
}
