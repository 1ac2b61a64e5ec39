// Package stream decodes Claude CLI stream-json output into typed events.
//
// Decoding is pure and total: ParseLine takes one raw line and always
// returns at least one event. Malformed or unrecognized input becomes an
// UnknownEvent, never an error; a broken line must not kill the stream.
package stream

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mazzeb/bmad-ralph-loop/pkg/models"
)

// ParseLine parses a single stream-json line into one or more events.
//
// It returns a slice because an assistant text block may yield both a
// TextEvent and a MarkerEvent for the same line.
func ParseLine(raw string) []models.StreamEvent {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []models.StreamEvent{models.UnknownEvent{Raw: ""}}
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return []models.StreamEvent{models.UnknownEvent{Raw: raw}}
	}

	msgType, _ := data["type"].(string)
	switch msgType {
	case "system":
		return parseSystem(data)
	case "assistant":
		return parseAssistant(data, raw)
	case "user":
		return parseUser(data, raw)
	case "result":
		return parseResult(data)
	case "rate_limit_event":
		return parseRateLimit(data)
	default:
		return []models.StreamEvent{models.UnknownEvent{Raw: raw}}
	}
}

func parseSystem(data map[string]interface{}) []models.StreamEvent {
	subtype, _ := data["subtype"].(string)
	if subtype != "init" {
		return []models.StreamEvent{models.SystemEvent{Subtype: subtype}}
	}

	ev := models.InitEvent{}
	ev.Model, _ = data["model"].(string)
	ev.PermissionMode, _ = data["permissionMode"].(string)
	ev.SessionID, _ = data["session_id"].(string)

	// Tools arrive either as plain names or as {"name": ...} objects.
	if tools, ok := data["tools"].([]interface{}); ok {
		for _, t := range tools {
			switch v := t.(type) {
			case string:
				ev.Tools = append(ev.Tools, v)
			case map[string]interface{}:
				if name, ok := v["name"].(string); ok {
					ev.Tools = append(ev.Tools, name)
				}
			}
		}
	}
	return []models.StreamEvent{ev}
}

func parseAssistant(data map[string]interface{}, raw string) []models.StreamEvent {
	var events []models.StreamEvent

	for _, item := range contentBlocks(data) {
		block, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch blockType, _ := block["type"].(string); blockType {
		case "text":
			text, _ := block["text"].(string)
			events = append(events, models.TextEvent{Text: text})
			if marker, ok := DetectMarker(text); ok {
				events = append(events, marker)
			}
		case "tool_use":
			name, _ := block["name"].(string)
			events = append(events, models.ToolUseEvent{
				ToolName:     name,
				InputSummary: summarizeToolInput(name, block["input"]),
			})
		case "thinking":
			text, _ := block["thinking"].(string)
			events = append(events, models.TextEvent{Text: text, IsThinking: true})
		}
	}

	if len(events) == 0 {
		return []models.StreamEvent{models.UnknownEvent{Raw: raw}}
	}
	return events
}

func parseUser(data map[string]interface{}, raw string) []models.StreamEvent {
	var events []models.StreamEvent

	for _, item := range contentBlocks(data) {
		block, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		switch blockType, _ := block["type"].(string); blockType {
		case "tool_result":
			id, _ := block["tool_use_id"].(string)
			events = append(events, models.ToolResultEvent{
				ToolUseID:      id,
				ContentSummary: summarizeToolResult(block["content"]),
			})
		case "text":
			text, _ := block["text"].(string)
			events = append(events, models.TextEvent{Text: text})
		}
	}

	if len(events) == 0 {
		return []models.StreamEvent{models.UnknownEvent{Raw: raw}}
	}
	return events
}

func parseResult(data map[string]interface{}) []models.StreamEvent {
	ev := models.ResultEvent{}
	ev.DurationMS = intField(data, "duration_ms")
	ev.NumTurns = intField(data, "num_turns")
	ev.IsError, _ = data["is_error"].(bool)
	ev.Subtype, _ = data["subtype"].(string)

	// Newer CLIs report total_cost_usd; older ones cost_usd.
	cost, ok := data["total_cost_usd"].(float64)
	if !ok {
		cost, ok = data["cost_usd"].(float64)
	}
	if ok {
		ev.CostUSD = &cost
	}
	return []models.StreamEvent{ev}
}

func parseRateLimit(data map[string]interface{}) []models.StreamEvent {
	ev := models.RateLimitEvent{}
	info, _ := data["rate_limit_info"].(map[string]interface{})
	ev.Status, _ = info["status"].(string)
	ev.RateLimitType, _ = info["rateLimitType"].(string)
	if epoch, ok := info["resetsAt"].(float64); ok {
		t := time.Unix(int64(epoch), 0).UTC()
		ev.ResetsAt = &t
	}
	return []models.StreamEvent{ev}
}

// contentBlocks returns message.content as a slice, or nil.
func contentBlocks(data map[string]interface{}) []interface{} {
	message, _ := data["message"].(map[string]interface{})
	content, _ := message["content"].([]interface{})
	return content
}

func intField(data map[string]interface{}, key string) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return 0
}
