// Package issues provides issue listing, creation, and owner blacklisting
// against the issue tracker GraphQL API.
package issues

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Status is the lifecycle state of an issue.
type Status string

const (
	StatusNew      Status = "New"
	StatusAssigned Status = "Assigned"
	StatusFixed    Status = "Fixed"
	StatusClosed   Status = "Closed"
)

// Statuses lists every valid Status in lifecycle order.
var Statuses = []Status{StatusNew, StatusAssigned, StatusFixed, StatusClosed}

// ParseStatus matches s case-insensitively against the known statuses. An
// empty string yields StatusNew.
func ParseStatus(s string) (Status, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return StatusNew, nil
	}
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid status %q: must be New, Assigned, Fixed, or Closed", s)
}

// Issue is a single issue as returned by the issueList query.
type Issue struct {
	ID      int        `json:"id"`
	Title   string     `json:"title"`
	Status  Status     `json:"status"`
	Owner   string     `json:"owner"`
	Created *time.Time `json:"created"`
	Effort  int        `json:"effort"`
	Due     *time.Time `json:"due"`
}

// IssueInputs is the payload of the issueAdd mutation.
type IssueInputs struct {
	Title  string
	Status Status
	Owner  string
	Effort int
	Due    time.Time
}

// variables returns the $issue variable for issueAdd.
func (in IssueInputs) variables() map[string]any {
	return map[string]any{
		"title":  in.Title,
		"status": string(in.Status),
		"owner":  in.Owner,
		"effort": in.Effort,
		"due":    in.Due,
	}
}

// ParseEffort reads a leading, optionally signed, base-10 integer from s,
// ignoring leading whitespace and anything after the digits. Input without
// a leading integer yields 0.
func ParseEffort(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	sign := 1
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	n := 0
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		n = n*10 + int(s[i]-'0')
		if n > 1<<31 {
			break
		}
	}
	return sign * n
}

// IssueManager defines the issue operations available to tool handlers.
//
// Each method may return a result together with a non-nil error when the
// server answered with both data and an error; callers decide whether the
// partial result is usable.
type IssueManager interface {
	List(ctx context.Context) ([]Issue, error)
	Add(ctx context.Context, in IssueInputs) (int, error)
	Blacklist(ctx context.Context, owner string) error
}
