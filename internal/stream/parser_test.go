package stream

import (
	"testing"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

func TestParseLineInitEvent(t *testing.T) {
	line := `{"type":"system","subtype":"init","model":"claude-sonnet-4","session_id":"sess-1","permissionMode":"bypassPermissions","tools":["Read","Write",{"name":"Bash"}]}`

	events := ParseLine(line)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	init, ok := events[0].(models.InitEvent)
	if !ok {
		t.Fatalf("got %T, want InitEvent", events[0])
	}
	if init.Model != "claude-sonnet-4" {
		t.Errorf("Model = %q, want %q", init.Model, "claude-sonnet-4")
	}
	if init.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want %q", init.SessionID, "sess-1")
	}
	if init.PermissionMode != "bypassPermissions" {
		t.Errorf("PermissionMode = %q", init.PermissionMode)
	}
	want := []string{"Read", "Write", "Bash"}
	if len(init.Tools) != len(want) {
		t.Fatalf("Tools = %v, want %v", init.Tools, want)
	}
	for i, name := range want {
		if init.Tools[i] != name {
			t.Errorf("Tools[%d] = %q, want %q", i, init.Tools[i], name)
		}
	}
}

func TestParseLineSystemSubtype(t *testing.T) {
	events := ParseLine(`{"type":"system","subtype":"hook_started"}`)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	sys, ok := events[0].(models.SystemEvent)
	if !ok {
		t.Fatalf("got %T, want SystemEvent", events[0])
	}
	if sys.Subtype != "hook_started" {
		t.Errorf("Subtype = %q, want %q", sys.Subtype, "hook_started")
	}
}

func TestParseLineToolUse(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantTool    string
		wantSummary string
	}{
		{
			name:        "read tool",
			line:        `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Read","input":{"file_path":"/src/main.go"}}]}}`,
			wantTool:    "Read",
			wantSummary: "/src/main.go",
		},
		{
			name:        "bash tool",
			line:        `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Bash","input":{"command":"go test ./..."}}]}}`,
			wantTool:    "Bash",
			wantSummary: "go test ./...",
		},
		{
			name:        "grep tool",
			line:        `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Grep","input":{"pattern":"func main"}}]}}`,
			wantTool:    "Grep",
			wantSummary: "func main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := ParseLine(tt.line)
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			use, ok := events[0].(models.ToolUseEvent)
			if !ok {
				t.Fatalf("got %T, want ToolUseEvent", events[0])
			}
			if use.ToolName != tt.wantTool {
				t.Errorf("ToolName = %q, want %q", use.ToolName, tt.wantTool)
			}
			if use.InputSummary != tt.wantSummary {
				t.Errorf("InputSummary = %q, want %q", use.InputSummary, tt.wantSummary)
			}
		})
	}
}

func TestParseLineToolResultStringContent(t *testing.T) {
	line := `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"tu-1","content":"ok"}]}}`
	events := ParseLine(line)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	res, ok := events[0].(models.ToolResultEvent)
	if !ok {
		t.Fatalf("got %T, want ToolResultEvent", events[0])
	}
	if res.ToolUseID != "tu-1" {
		t.Errorf("ToolUseID = %q", res.ToolUseID)
	}
	if res.ContentSummary != "ok" {
		t.Errorf("ContentSummary = %q, want %q", res.ContentSummary, "ok")
	}
}

func TestParseLineToolResultListContent(t *testing.T) {
	line := `{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"tu-2","content":[{"type":"text","text":"hello"},{"type":"text","text":"world"}]}]}}`
	events := ParseLine(line)
	res, ok := events[0].(models.ToolResultEvent)
	if !ok {
		t.Fatalf("got %T, want ToolResultEvent", events[0])
	}
	if res.ContentSummary != "hello world" {
		t.Errorf("ContentSummary = %q, want %q", res.ContentSummary, "hello world")
	}
}

func TestParseLineAssistantText(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"Working on it."}]}}`
	events := ParseLine(line)
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	text, ok := events[0].(models.TextEvent)
	if !ok {
		t.Fatalf("got %T, want TextEvent", events[0])
	}
	if text.Text != "Working on it." {
		t.Errorf("Text = %q", text.Text)
	}
	if text.IsThinking {
		t.Error("IsThinking = true, want false")
	}
}

func TestParseLineThinking(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"thinking","thinking":"considering options"}]}}`
	events := ParseLine(line)
	text, ok := events[0].(models.TextEvent)
	if !ok {
		t.Fatalf("got %T, want TextEvent", events[0])
	}
	if !text.IsThinking {
		t.Error("IsThinking = false, want true")
	}
	if text.Text != "considering options" {
		t.Errorf("Text = %q", text.Text)
	}
}

func TestParseLineResult(t *testing.T) {
	line := `{"type":"result","subtype":"success","duration_ms":45000,"num_turns":12,"is_error":false,"total_cost_usd":1.25}`
	events := ParseLine(line)
	res, ok := events[0].(models.ResultEvent)
	if !ok {
		t.Fatalf("got %T, want ResultEvent", events[0])
	}
	if res.DurationMS != 45000 {
		t.Errorf("DurationMS = %d, want 45000", res.DurationMS)
	}
	if res.NumTurns != 12 {
		t.Errorf("NumTurns = %d, want 12", res.NumTurns)
	}
	if res.IsError {
		t.Error("IsError = true, want false")
	}
	if res.CostUSD == nil || *res.CostUSD != 1.25 {
		t.Errorf("CostUSD = %v, want 1.25", res.CostUSD)
	}
}

func TestParseLineResultLegacyCostField(t *testing.T) {
	line := `{"type":"result","subtype":"success","duration_ms":100,"num_turns":1,"is_error":false,"cost_usd":0.5}`
	events := ParseLine(line)
	res := events[0].(models.ResultEvent)
	if res.CostUSD == nil || *res.CostUSD != 0.5 {
		t.Errorf("CostUSD = %v, want 0.5", res.CostUSD)
	}
}

func TestParseLineResultNoCost(t *testing.T) {
	line := `{"type":"result","subtype":"error_max_turns","duration_ms":100,"num_turns":200,"is_error":true}`
	events := ParseLine(line)
	res := events[0].(models.ResultEvent)
	if res.CostUSD != nil {
		t.Errorf("CostUSD = %v, want nil (absent is not zero)", *res.CostUSD)
	}
	if !res.IsError {
		t.Error("IsError = false, want true")
	}
	if res.Subtype != "error_max_turns" {
		t.Errorf("Subtype = %q", res.Subtype)
	}
}

func TestParseLineRateLimit(t *testing.T) {
	line := `{"type":"rate_limit_event","rate_limit_info":{"status":"rate_limited","resetsAt":1735689600,"rateLimitType":"five_hour"}}`
	events := ParseLine(line)
	rl, ok := events[0].(models.RateLimitEvent)
	if !ok {
		t.Fatalf("got %T, want RateLimitEvent", events[0])
	}
	if rl.Status != "rate_limited" {
		t.Errorf("Status = %q", rl.Status)
	}
	if rl.RateLimitType != "five_hour" {
		t.Errorf("RateLimitType = %q", rl.RateLimitType)
	}
	if rl.ResetsAt == nil {
		t.Fatal("ResetsAt = nil, want a time")
	}
	if rl.ResetsAt.Unix() != 1735689600 {
		t.Errorf("ResetsAt.Unix() = %d, want 1735689600", rl.ResetsAt.Unix())
	}
}

func TestParseLineRateLimitNoReset(t *testing.T) {
	line := `{"type":"rate_limit_event","rate_limit_info":{"status":"allowed","rateLimitType":"five_hour"}}`
	events := ParseLine(line)
	rl := events[0].(models.RateLimitEvent)
	if rl.ResetsAt != nil {
		t.Errorf("ResetsAt = %v, want nil", rl.ResetsAt)
	}
}

func TestParseLineTextWithMarker(t *testing.T) {
	line := `{"type":"assistant","message":{"content":[{"type":"text","text":"work done <CREATE_STORY_COMPLETE>1-3-foo</CREATE_STORY_COMPLETE> now stopping"}]}}`
	events := ParseLine(line)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (text + marker)", len(events))
	}
	if _, ok := events[0].(models.TextEvent); !ok {
		t.Errorf("events[0] = %T, want TextEvent", events[0])
	}
	marker, ok := events[1].(models.MarkerEvent)
	if !ok {
		t.Fatalf("events[1] = %T, want MarkerEvent", events[1])
	}
	if marker.Type != models.MarkerCreateStoryComplete {
		t.Errorf("Type = %q, want %q", marker.Type, models.MarkerCreateStoryComplete)
	}
	if marker.Payload != "1-3-foo" {
		t.Errorf("Payload = %q, want %q", marker.Payload, "1-3-foo")
	}
}

func TestParseLineNeverFails(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"malformed json", `{"type": "assist`},
		{"empty line", ""},
		{"whitespace line", "   \t  "},
		{"unknown type", `{"type":"telemetry","data":1}`},
		{"non-object json", `[1,2,3]`},
		{"bare scalar", `42`},
		{"binary garbage", "\x00\xff\xfe"},
		{"assistant without content", `{"type":"assistant","message":{}}`},
		{"user without content", `{"type":"user","message":{"content":[]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := ParseLine(tt.line)
			if len(events) == 0 {
				t.Fatal("got 0 events, want at least 1")
			}
			if _, ok := events[0].(models.UnknownEvent); !ok {
				t.Errorf("got %T, want UnknownEvent", events[0])
			}
		})
	}
}
