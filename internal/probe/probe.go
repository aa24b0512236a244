// Package probe determines the mute state of the target conferencing app
// by reading its meeting menu through the accessibility scripting layer.
// Every failure mode collapses to StateUnknown with a category-specific
// detail; Check never panics and never returns an error to the caller.
package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MuteState is the tri-state poll result. It is a dedicated enum rather
// than a nullable bool so the unknown branch cannot be skipped.
type MuteState int

const (
	StateUnknown MuteState = iota
	StateMuted
	StateUnmuted
)

// String returns the wire/display name of the state.
func (s MuteState) String() string {
	switch s {
	case StateMuted:
		return "muted"
	case StateUnmuted:
		return "unmuted"
	default:
		return "unknown"
	}
}

// StateFromString parses a state name; anything unrecognized is unknown.
func StateFromString(s string) MuteState {
	switch s {
	case "muted":
		return StateMuted
	case "unmuted":
		return StateUnmuted
	default:
		return StateUnknown
	}
}

// Keywords are the two user-editable exact-match strings compared against
// the meeting menu item names.
type Keywords struct {
	Muted   string
	Unmuted string
}

// Outcome is the result of one poll. Detail is populated only when State
// is StateUnknown and classifies why the state could not be determined.
type Outcome struct {
	State  MuteState
	Detail string
}

// ScriptRunner executes one accessibility script and returns its output.
// The darwin implementation shells out to osascript; tests inject fakes.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (string, error)
}

// Prober issues a single menu query per Check and classifies the result.
type Prober struct {
	runner       ScriptRunner
	keywords     func() Keywords // read fresh on every Check, never cached
	processNames []string
	menuLabel    string
}

// New creates a Prober. keywords is called at the start of every Check so
// menu-driven edits take effect on the next poll.
func New(runner ScriptRunner, keywords func() Keywords) *Prober {
	return &Prober{
		runner:       runner,
		keywords:     keywords,
		processNames: defaultProcessNames,
		menuLabel:    meetingMenuLabel,
	}
}

// Check performs one poll. It always returns an Outcome: scripting
// failures, timeouts and even panics are converted to StateUnknown with
// a human-readable detail.
func (p *Prober) Check(ctx context.Context) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				State:  StateUnknown,
				Detail: fmt.Sprintf("unexpected: %T: %v", r, r),
			}
		}
	}()

	kw := p.keywords()

	raw, err := p.runner.Run(ctx, buildScript(p.processNames, p.menuLabel))
	if err != nil {
		// Cancellation is the shutdown path, not a scripting failure;
		// keep the detail quiet so the last persisted status stays clean.
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return Outcome{State: StateUnknown, Detail: "check canceled"}
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Outcome{
				State:  StateUnknown,
				Detail: "scripting error: probe timed out (check Accessibility permissions and system load)",
			}
		}
		return Outcome{
			State:  StateUnknown,
			Detail: fmt.Sprintf("scripting error: %v (check Accessibility permissions)", err),
		}
	}

	return classify(raw, kw)
}

// classify maps the raw script output to an Outcome. Keyword matching is
// exact string equality against the returned item names; the muted
// keyword is checked first across the whole list and the first match
// wins.
func classify(raw string, kw Keywords) Outcome {
	raw = strings.TrimRight(raw, "\r\n")

	switch {
	case raw == markerNotRunning:
		return Outcome{State: StateUnknown, Detail: "Zoom is not running"}

	case strings.HasPrefix(raw, markerError):
		msg := strings.TrimSpace(strings.TrimPrefix(raw, markerError))
		return Outcome{
			State:  StateUnknown,
			Detail: fmt.Sprintf("scripting error: %s (check Accessibility permissions)", msg),
		}

	case strings.HasPrefix(raw, markerItems):
		items := splitItems(strings.TrimPrefix(raw, markerItems))
		return matchKeywords(items, kw)

	default:
		return Outcome{State: StateUnknown, Detail: fmt.Sprintf("unexpected status: %q", raw)}
	}
}

// matchKeywords applies the precedence order: muted first, then unmuted,
// else unknown with the verbatim ordered menu dump for self-diagnosis.
func matchKeywords(items []string, kw Keywords) Outcome {
	for _, item := range items {
		if item == kw.Muted {
			return Outcome{State: StateMuted}
		}
	}
	for _, item := range items {
		if item == kw.Unmuted {
			return Outcome{State: StateUnmuted}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "keyword not found\nmuted keyword: %q\nunmuted keyword: %q\nmenu items:\n", kw.Muted, kw.Unmuted)
	for _, item := range items {
		fmt.Fprintf(&b, "- %s\n", item)
	}
	return Outcome{State: StateUnknown, Detail: strings.TrimRight(b.String(), "\n")}
}

// splitItems splits the linefeed-joined menu dump, dropping empty lines
// produced by the trailing separator.
func splitItems(dump string) []string {
	var items []string
	for _, line := range strings.Split(dump, "\n") {
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
