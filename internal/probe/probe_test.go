package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

// fakeRunner returns a canned script result and records each invocation.
type fakeRunner struct {
	output string
	err    error
	calls  int
	script string
}

func (f *fakeRunner) Run(ctx context.Context, script string) (string, error) {
	f.calls++
	f.script = script
	return f.output, f.err
}

func staticKeywords(muted, unmuted string) func() Keywords {
	return func() Keywords {
		return Keywords{Muted: muted, Unmuted: unmuted}
	}
}

func itemsOutput(items ...string) string {
	return markerItems + strings.Join(items, "\n") + "\n"
}

func TestCheckKeywordMatching(t *testing.T) {
	tests := []struct {
		name       string
		muted      string
		unmuted    string
		items      []string
		wantState  MuteState
		wantDetail []string // substrings that must appear in Detail
	}{
		{
			name:      "muted keyword present",
			muted:     "MUTED",
			unmuted:   "UNMUTED",
			items:     []string{"MUTED", "Record"},
			wantState: StateMuted,
		},
		{
			name:      "muted wins even when unmuted appears first",
			muted:     "MUTED",
			unmuted:   "UNMUTED",
			items:     []string{"UNMUTED", "MUTED"},
			wantState: StateMuted,
		},
		{
			name:      "unmuted keyword only",
			muted:     "MUTED",
			unmuted:   "UNMUTED",
			items:     []string{"Record", "UNMUTED", "Leave"},
			wantState: StateUnmuted,
		},
		{
			name:       "no keyword match dumps every item in order",
			muted:      "MUTED",
			unmuted:    "UNMUTED",
			items:      []string{"Record", "Leave"},
			wantState:  StateUnknown,
			wantDetail: []string{"keyword not found", "- Record", "- Leave"},
		},
		{
			name:      "exact match only, no substring matching",
			muted:     "Mute",
			unmuted:   "Unmute",
			items:     []string{"Mute audio", "Unmute audio"},
			wantState: StateUnknown,
		},
		{
			name:      "japanese default phrases",
			muted:     "オーディオのミュート解除",
			unmuted:   "オーディオのミュート",
			items:     []string{"オーディオのミュート解除", "ビデオの開始"},
			wantState: StateMuted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{output: itemsOutput(tt.items...)}
			p := New(runner, staticKeywords(tt.muted, tt.unmuted))

			out := p.Check(context.Background())

			if out.State != tt.wantState {
				t.Errorf("state: got %s, want %s", out.State, tt.wantState)
			}
			if tt.wantState != StateUnknown && out.Detail != "" {
				t.Errorf("detail should be empty for %s, got %q", tt.wantState, out.Detail)
			}
			for _, substr := range tt.wantDetail {
				if !strings.Contains(out.Detail, substr) {
					t.Errorf("detail %q missing %q", out.Detail, substr)
				}
			}
		})
	}
}

func TestCheckDumpPreservesItemOrder(t *testing.T) {
	items := []string{"Record", "Leave", "Raise Hand"}
	runner := &fakeRunner{output: itemsOutput(items...)}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Fatalf("state: got %s, want unknown", out.State)
	}
	last := -1
	for _, item := range items {
		idx := strings.Index(out.Detail, "- "+item)
		if idx < 0 {
			t.Fatalf("detail missing item %q: %q", item, out.Detail)
		}
		if idx < last {
			t.Errorf("item %q out of order in detail", item)
		}
		last = idx
	}
}

func TestCheckTargetNotRunning(t *testing.T) {
	runner := &fakeRunner{output: markerNotRunning + "\n"}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "not running") {
		t.Errorf("detail: got %q, want not-running classification", out.Detail)
	}
	// A single script invocation covers both the process check and the
	// menu read; the script short-circuits before touching the menu bar.
	if runner.calls != 1 {
		t.Errorf("runner calls: got %d, want 1", runner.calls)
	}
}

func TestCheckScriptingError(t *testing.T) {
	runner := &fakeRunner{output: markerError + "System Events got an error: osascript is not allowed assistive access."}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "scripting error") {
		t.Errorf("detail: got %q, want scripting error classification", out.Detail)
	}
	if !strings.Contains(out.Detail, "assistive access") {
		t.Errorf("detail should carry the script's error message, got %q", out.Detail)
	}
}

func TestCheckRunnerFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("osascript: exec format error")}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "scripting error") {
		t.Errorf("detail: got %q", out.Detail)
	}
}

func TestCheckTimeout(t *testing.T) {
	runner := &fakeRunner{err: context.DeadlineExceeded}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "timed out") {
		t.Errorf("detail: got %q, want timeout classification", out.Detail)
	}
}

func TestCheckCanceledQuietly(t *testing.T) {
	runner := &fakeRunner{err: context.Canceled}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if out.Detail != "check canceled" {
		t.Errorf("detail: got %q, want %q", out.Detail, "check canceled")
	}
	if strings.Contains(out.Detail, "scripting error") {
		t.Errorf("shutdown cancellation must not be classified as a scripting error: %q", out.Detail)
	}
}

func TestCheckUnexpectedOutput(t *testing.T) {
	runner := &fakeRunner{output: "garbage"}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "unexpected status") {
		t.Errorf("detail: got %q", out.Detail)
	}
}

func TestCheckRecoversFromPanic(t *testing.T) {
	runner := &fakeRunner{output: itemsOutput("Record")}
	p := New(runner, func() Keywords {
		panic(fmt.Errorf("keyword source broke"))
	})

	out := p.Check(context.Background())

	if out.State != StateUnknown {
		t.Errorf("state: got %s, want unknown", out.State)
	}
	if !strings.Contains(out.Detail, "unexpected:") || !strings.Contains(out.Detail, "keyword source broke") {
		t.Errorf("detail: got %q", out.Detail)
	}
}

func TestCheckReadsKeywordsFresh(t *testing.T) {
	runner := &fakeRunner{output: itemsOutput("Unmute audio", "Record")}

	kw := Keywords{Muted: "MUTED", Unmuted: "UNMUTED"}
	p := New(runner, func() Keywords { return kw })

	if out := p.Check(context.Background()); out.State != StateUnknown {
		t.Fatalf("before edit: got %s, want unknown", out.State)
	}

	// Simulate a menu-driven keyword edit between polls.
	kw.Muted = "Unmute audio"

	if out := p.Check(context.Background()); out.State != StateMuted {
		t.Errorf("after edit: got %s, want muted", out.State)
	}
}

func TestCheckIdempotent(t *testing.T) {
	runner := &fakeRunner{output: itemsOutput("Record", "Leave")}
	p := New(runner, staticKeywords("MUTED", "UNMUTED"))

	first := p.Check(context.Background())
	second := p.Check(context.Background())

	if first != second {
		t.Errorf("outcomes differ for unchanged external state:\n%+v\n%+v", first, second)
	}
}

func TestMuteStateStringRoundTrip(t *testing.T) {
	for _, s := range []MuteState{StateMuted, StateUnmuted, StateUnknown} {
		if got := StateFromString(s.String()); got != s {
			t.Errorf("round trip %s: got %s", s, got)
		}
	}
	if StateFromString("bogus") != StateUnknown {
		t.Error("unrecognized state name should map to unknown")
	}
}
