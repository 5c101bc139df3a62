package matcher

import (
	"context"
	"fmt"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// NeedleMatcher reports narscan.NeedleTag for buffers containing an exact byte sequence.
type NeedleMatcher struct {
	search *twoWay
}

// NewNeedleMatcher compiles needle. The needle is copied, so the caller may
// reuse its slice.
func NewNeedleMatcher(needle []byte) (*NeedleMatcher, error) {
	if len(needle) == 0 {
		return nil, fmt.Errorf("needle cannot be empty: %w", narscan.ErrInvalidConfig)
	}
	return &NeedleMatcher{search: newTwoWay(needle)}, nil
}

// Name implements narscan.Matcher.
func (m *NeedleMatcher) Name() string {
	return "needle"
}

// Match implements narscan.Matcher.
func (m *NeedleMatcher) Match(_ context.Context, data []byte) ([]string, error) {
	if m.search.index(data) < 0 {
		return nil, nil
	}
	return []string{narscan.NeedleTag}, nil
}

var _ narscan.Matcher = (*NeedleMatcher)(nil)
