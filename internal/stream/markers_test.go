package stream

import (
	"testing"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

func TestDetectMarkerPaired(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantType    models.MarkerType
		wantPayload string
	}{
		{
			name:        "halt with reason",
			text:        "<HALT>tests are failing and I cannot fix them</HALT>",
			wantType:    models.MarkerHalt,
			wantPayload: "tests are failing and I cannot fix them",
		},
		{
			name:        "create story complete",
			text:        "<CREATE_STORY_COMPLETE>2-1-user-login</CREATE_STORY_COMPLETE>",
			wantType:    models.MarkerCreateStoryComplete,
			wantPayload: "2-1-user-login",
		},
		{
			name:        "dev story complete",
			text:        "<DEV_STORY_COMPLETE>2-1-user-login</DEV_STORY_COMPLETE>",
			wantType:    models.MarkerDevStoryComplete,
			wantPayload: "2-1-user-login",
		},
		{
			name:        "code review approved",
			text:        "<CODE_REVIEW_APPROVED>2-1-user-login</CODE_REVIEW_APPROVED>",
			wantType:    models.MarkerCodeReviewApproved,
			wantPayload: "2-1-user-login",
		},
		{
			name:        "code review issues",
			text:        "<CODE_REVIEW_ISSUES>2-1-user-login</CODE_REVIEW_ISSUES>",
			wantType:    models.MarkerCodeReviewIssues,
			wantPayload: "2-1-user-login",
		},
		{
			name:        "mid sentence",
			text:        "All done here. <DEV_STORY_COMPLETE>1-3-foo</DEV_STORY_COMPLETE> Signing off.",
			wantType:    models.MarkerDevStoryComplete,
			wantPayload: "1-3-foo",
		},
		{
			name:        "multiline payload",
			text:        "<HALT>line one\nline two</HALT>",
			wantType:    models.MarkerHalt,
			wantPayload: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			marker, ok := DetectMarker(tt.text)
			if !ok {
				t.Fatal("DetectMarker returned false, want a marker")
			}
			if marker.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", marker.Type, tt.wantType)
			}
			if marker.Payload != tt.wantPayload {
				t.Errorf("Payload = %q, want %q", marker.Payload, tt.wantPayload)
			}
		})
	}
}

func TestDetectMarkerSelfClosing(t *testing.T) {
	tests := []struct {
		text     string
		wantType models.MarkerType
	}{
		{"<NO_BACKLOG_STORIES/>", models.MarkerNoBacklogStories},
		{"<NO_BACKLOG_STORIES />", models.MarkerNoBacklogStories},
		{"nothing left <NO_READY_STORIES/> today", models.MarkerNoReadyStories},
	}

	for _, tt := range tests {
		marker, ok := DetectMarker(tt.text)
		if !ok {
			t.Fatalf("DetectMarker(%q) returned false", tt.text)
		}
		if marker.Type != tt.wantType {
			t.Errorf("Type = %q, want %q", marker.Type, tt.wantType)
		}
		if marker.Payload != "" {
			t.Errorf("Payload = %q, want empty", marker.Payload)
		}
	}
}

func TestDetectMarkerFirstMatchWins(t *testing.T) {
	// Two markers in one block: only the earliest is honored.
	text := "<NO_READY_STORIES/> then <DEV_STORY_COMPLETE>1-1-a</DEV_STORY_COMPLETE>"
	marker, ok := DetectMarker(text)
	if !ok {
		t.Fatal("DetectMarker returned false")
	}
	if marker.Type != models.MarkerNoReadyStories {
		t.Errorf("Type = %q, want %q (earliest match)", marker.Type, models.MarkerNoReadyStories)
	}

	text = "<HALT>stop</HALT> and also <NO_BACKLOG_STORIES/>"
	marker, ok = DetectMarker(text)
	if !ok {
		t.Fatal("DetectMarker returned false")
	}
	if marker.Type != models.MarkerHalt {
		t.Errorf("Type = %q, want %q (earliest match)", marker.Type, models.MarkerHalt)
	}
}

func TestDetectMarkerNegative(t *testing.T) {
	tests := []string{
		"",
		"plain text with no markers",
		"<halt>lowercase is not a marker</halt>",
		"<UNKNOWN_TAG>x</UNKNOWN_TAG>",
		"<HALT>unterminated",
		"loose </HALT> close only",
	}

	for _, text := range tests {
		if marker, ok := DetectMarker(text); ok {
			t.Errorf("DetectMarker(%q) = %v, want no match", text, marker)
		}
	}
}
