// Package matcher implements the two pattern matchers narscan scans files with.
//
// NeedleMatcher looks for one exact byte sequence. RuleMatcher evaluates a
// YAML rule set of literal, hex and regular-expression strings under a time
// budget. Both are immutable after construction and safe for concurrent use.
package matcher
