package matcher

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/narscan/pkg/narscan"
)

// Rule conditions.
const (
	ConditionAny = "any"
	ConditionAll = "all"
)

// RuleSet is the YAML document a rule file contains.
//
//	rules:
//	  - id: xz_backdoor
//	    condition: all
//	    strings:
//	      - hex: "f30f1efa554889f5"
//	      - regex: "yolo[0-9]+"
//	        nocase: true
type RuleSet struct {
	Rules []RuleSpec `yaml:"rules"`
}

// RuleSpec is one rule. Condition defaults to "any".
type RuleSpec struct {
	ID        string       `yaml:"id"`
	Condition string       `yaml:"condition,omitempty"`
	Strings   []StringSpec `yaml:"strings"`
}

// StringSpec is one pattern of a rule. Exactly one of Text, Hex or Regex must be set.
type StringSpec struct {
	Text   string `yaml:"text,omitempty"`
	Hex    string `yaml:"hex,omitempty"`
	Regex  string `yaml:"regex,omitempty"`
	NoCase bool   `yaml:"nocase,omitempty"`
}

// pattern is a compiled rule string.
type pattern interface {
	match(data []byte, text func() string) (bool, error)
}

type literalPattern struct {
	search *twoWay
}

func (p literalPattern) match(data []byte, _ func() string) (bool, error) {
	return p.search.index(data) >= 0, nil
}

type regexPattern struct {
	re *regexp2.Regexp
}

// Regular expressions run over the buffer decoded as UTF-8; invalid bytes
// become U+FFFD.
func (p regexPattern) match(_ []byte, text func() string) (bool, error) {
	return p.re.MatchString(text())
}

type compiledRule struct {
	id       string
	all      bool
	patterns []pattern
}

// RuleMatcher evaluates a compiled rule set and reports the ids of matching rules.
type RuleMatcher struct {
	rules   []compiledRule
	timeout time.Duration
}

// RuleOption configures a RuleMatcher.
type RuleOption func(*RuleMatcher)

// WithTimeout sets the time budget of a single Match call.
// Defaults to narscan.RuleScanTimeout.
func WithTimeout(d time.Duration) RuleOption {
	return func(m *RuleMatcher) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// LoadRules reads and compiles the rule file at path.
func LoadRules(path string, opts ...RuleOption) (*RuleMatcher, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file %s: %v: %w", path, err, narscan.ErrRuleCompile)
	}

	m, err := CompileRules(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// CompileRules compiles a YAML rule set. All problems are reported together.
func CompileRules(data []byte, opts ...RuleOption) (*RuleMatcher, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("invalid YAML: %v: %w", err, narscan.ErrRuleCompile)
	}
	return Compile(rs, opts...)
}

// Compile builds a matcher from a parsed rule set.
func Compile(rs RuleSet, opts ...RuleOption) (*RuleMatcher, error) {
	m := &RuleMatcher{timeout: narscan.RuleScanTimeout}
	for _, opt := range opts {
		opt(m)
	}

	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("rule set contains no rules: %w", narscan.ErrRuleCompile)
	}

	var errs []error
	seen := make(map[string]bool, len(rs.Rules))

	for i, spec := range rs.Rules {
		where := fmt.Sprintf("rule #%d", i+1)
		if spec.ID != "" {
			where = fmt.Sprintf("rule %q", spec.ID)
		}

		rule, ruleErrs := m.compileRule(spec)
		for _, err := range ruleErrs {
			errs = append(errs, fmt.Errorf("%s: %v: %w", where, err, narscan.ErrRuleCompile))
		}

		if spec.ID != "" {
			if seen[spec.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate id: %w", where, narscan.ErrRuleCompile))
			}
			seen[spec.ID] = true
		}

		m.rules = append(m.rules, rule)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *RuleMatcher) compileRule(spec RuleSpec) (compiledRule, []error) {
	var errs []error
	rule := compiledRule{id: spec.ID}

	if strings.TrimSpace(spec.ID) == "" {
		errs = append(errs, errors.New("id is required"))
	}

	switch spec.Condition {
	case "", ConditionAny:
	case ConditionAll:
		rule.all = true
	default:
		errs = append(errs, fmt.Errorf("unknown condition %q (expected %q or %q)", spec.Condition, ConditionAny, ConditionAll))
	}

	if len(spec.Strings) == 0 {
		errs = append(errs, errors.New("at least one string is required"))
	}

	for i, s := range spec.Strings {
		p, err := m.compilePattern(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("string #%d: %v", i+1, err))
			continue
		}
		rule.patterns = append(rule.patterns, p)
	}

	return rule, errs
}

func (m *RuleMatcher) compilePattern(s StringSpec) (pattern, error) {
	set := 0
	for _, v := range []string{s.Text, s.Hex, s.Regex} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, errors.New("exactly one of text, hex or regex must be set")
	}

	switch {
	case s.Hex != "":
		if s.NoCase {
			return nil, errors.New("nocase does not apply to hex strings")
		}
		b, err := hex.DecodeString(strings.Join(strings.Fields(s.Hex), ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %v", s.Hex, err)
		}
		return literalPattern{search: newTwoWay(b)}, nil

	case s.Text != "" && !s.NoCase:
		return literalPattern{search: newTwoWay([]byte(s.Text))}, nil

	default:
		expr := s.Regex
		if expr == "" {
			expr = regexp2.Escape(s.Text)
		}
		opts := regexp2.RegexOptions(regexp2.None)
		if s.NoCase {
			opts |= regexp2.IgnoreCase
		}
		re, err := regexp2.Compile(expr, opts)
		if err != nil {
			return nil, fmt.Errorf("invalid regex %q: %v", expr, err)
		}
		re.MatchTimeout = m.timeout
		return regexPattern{re: re}, nil
	}
}

// Name implements narscan.Matcher.
func (m *RuleMatcher) Name() string {
	return "rules"
}

// Rules returns the rule ids in file order.
func (m *RuleMatcher) Rules() []string {
	ids := make([]string, len(m.rules))
	for i, r := range m.rules {
		ids[i] = r.id
	}
	return ids
}

// Match implements narscan.Matcher. It returns the ids of all matching
// rules in file order. Exceeding the time budget fails with
// narscan.ErrMatchTimeout.
func (m *RuleMatcher) Match(ctx context.Context, data []byte) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	var text string
	decoded := false
	asText := func() string {
		if !decoded {
			text = string(data)
			decoded = true
		}
		return text
	}

	var matched []string
	for _, rule := range m.rules {
		ok, err := m.evaluate(ctx, rule, data, asText)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", rule.id, err)
		}
		if ok {
			matched = append(matched, rule.id)
		}
	}
	return matched, nil
}

func (m *RuleMatcher) evaluate(ctx context.Context, rule compiledRule, data []byte, text func() string) (bool, error) {
	for _, p := range rule.patterns {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("scan budget of %s exhausted: %w", m.timeout, narscan.ErrMatchTimeout)
		}

		ok, err := p.match(data, text)
		if err != nil {
			// regexp2 timeout errors embed the whole input, so they are not wrapped.
			if ctx.Err() != nil || strings.HasPrefix(err.Error(), "match timeout") {
				return false, fmt.Errorf("scan budget of %s exhausted: %w", m.timeout, narscan.ErrMatchTimeout)
			}
			return false, fmt.Errorf("%v: %w", err, narscan.ErrMatchEngine)
		}

		if ok && !rule.all {
			return true, nil
		}
		if !ok && rule.all {
			return false, nil
		}
	}
	return rule.all, nil
}

var _ narscan.Matcher = (*RuleMatcher)(nil)
