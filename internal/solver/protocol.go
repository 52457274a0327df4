package solver

import (
	"fmt"
	"strconv"
	"strings"

	"fpstab/internal/canon"
	"fpstab/internal/sexpr"
)

// FailureKind is the closed set of ways a solver call can fail.
type FailureKind int

const (
	// FailureNone means the solver answered with a well-formed reply.
	FailureNone FailureKind = iota
	// FailureStart means the binary could not be started.
	FailureStart
	// FailureExit means the solver exited with a non-zero status.
	FailureExit
	// FailureTimeout means the configured deadline expired.
	FailureTimeout
	// FailureTooFewLines means the reply had fewer than three lines.
	FailureTooFewLines
	// FailureBadNumber means an error-metric line did not hold a number.
	FailureBadNumber
	// FailureMissingGroup means the third line held no usable expression.
	FailureMissingGroup
	// FailureCancelled means the caller's context was cancelled before the
	// solver answered.
	FailureCancelled
)

var failureNames = map[FailureKind]string{
	FailureNone:         "none",
	FailureStart:        "start",
	FailureExit:         "exit",
	FailureTimeout:      "timeout",
	FailureTooFewLines:  "too_few_lines",
	FailureBadNumber:    "bad_number",
	FailureMissingGroup: "missing_group",
	FailureCancelled:    "cancelled",
}

func (k FailureKind) String() string {
	if name, ok := failureNames[k]; ok {
		return name
	}
	return "unknown"
}

// FailureKinds lists every kind, FailureNone first.
func FailureKinds() []FailureKind {
	return []FailureKind{
		FailureNone, FailureStart, FailureExit, FailureTimeout,
		FailureTooFewLines, FailureBadNumber, FailureMissingGroup,
		FailureCancelled,
	}
}

// ReplyError describes a reply that does not follow the protocol.
type ReplyError struct {
	Kind FailureKind
	Line int
	Msg  string
}

func (e *ReplyError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("solver reply line %d: %s", e.Line, e.Msg)
	}
	return "solver reply: " + e.Msg
}

// Reply is a parsed solver answer.
type Reply struct {
	ErrIn  float64
	ErrOut float64
	Output string
}

// outputGroup is the pre-order index of the parenthesized group on the third
// line that holds the rewritten expression.
const outputGroup = 2

// BuildRequest renders the single stdin line for form:
//
//	(herbie-test (v0 v1 ...) "cmd" <canonical text>)
func BuildRequest(form canon.Form) string {
	return fmt.Sprintf("(herbie-test (%s) \"cmd\" %s)\n",
		strings.Join(form.Vars.Placeholders(), " "), form.Text)
}

// SeedArg renders a seed tuple the way the solver's -r flag expects it.
func SeedArg(seed []int64) string {
	parts := make([]string, len(seed))
	for i, s := range seed {
		parts[i] = strconv.FormatInt(s, 10)
	}
	return "#(" + strings.Join(parts, " ") + ")"
}

// ParseReply reads the three-line reply: two "label: number" lines carrying
// the error before and after, and a line whose third parenthesized group in
// pre-order is the rewritten expression.
func ParseReply(stdout string) (Reply, error) {
	lines := strings.Split(strings.ReplaceAll(stdout, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 3 {
		return Reply{}, &ReplyError{
			Kind: FailureTooFewLines,
			Msg:  fmt.Sprintf("expected at least 3 lines, got %d", len(lines)),
		}
	}

	errIn, err := parseMetric(lines[0], 1)
	if err != nil {
		return Reply{}, err
	}
	errOut, err := parseMetric(lines[1], 2)
	if err != nil {
		return Reply{}, err
	}

	nodes, perr := sexpr.ParseAll(lines[2])
	if perr != nil {
		return Reply{}, &ReplyError{Kind: FailureMissingGroup, Line: 3, Msg: perr.Error()}
	}
	var groups []sexpr.Node
	for _, n := range nodes {
		groups = append(groups, n.Lists()...)
	}
	if len(groups) <= outputGroup {
		return Reply{}, &ReplyError{
			Kind: FailureMissingGroup,
			Line: 3,
			Msg:  fmt.Sprintf("expected at least %d parenthesized groups, got %d", outputGroup+1, len(groups)),
		}
	}

	return Reply{ErrIn: errIn, ErrOut: errOut, Output: groups[outputGroup].String()}, nil
}

func parseMetric(line string, lineNo int) (float64, error) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return 0, &ReplyError{Kind: FailureBadNumber, Line: lineNo, Msg: fmt.Sprintf("no ':' in %q", line)}
	}
	field := strings.TrimSpace(line[idx+1:])
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, &ReplyError{Kind: FailureBadNumber, Line: lineNo, Msg: fmt.Sprintf("invalid number %q", field)}
	}
	return v, nil
}
