package stream

import "fmt"

// toolInputKeys maps tool names to the input field that best summarizes
// the invocation in one line.
var toolInputKeys = map[string]string{
	"Read":      "file_path",
	"Edit":      "file_path",
	"Write":     "file_path",
	"Glob":      "pattern",
	"Grep":      "pattern",
	"Bash":      "command",
	"WebFetch":  "url",
	"WebSearch": "query",
}

const maxSummaryLen = 60

// summarizeToolInput extracts a short summary from a tool_use input block.
func summarizeToolInput(toolName string, input interface{}) string {
	data, ok := input.(map[string]interface{})
	if !ok {
		return truncate(stringify(input), maxSummaryLen)
	}

	if key, ok := toolInputKeys[toolName]; ok {
		if v, ok := data[key].(string); ok {
			return v
		}
	}

	// Fallback: first string value.
	for _, v := range data {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// summarizeToolResult flattens tool_result content into a truncated summary.
// Content arrives either as a plain string or as a list of text blocks.
func summarizeToolResult(content interface{}) string {
	switch v := content.(type) {
	case string:
		return truncate(v, maxSummaryLen)
	case []interface{}:
		var out string
		for _, part := range v {
			block, ok := part.(map[string]interface{})
			if !ok {
				continue
			}
			if t, _ := block["type"].(string); t != "text" {
				continue
			}
			if text, ok := block["text"].(string); ok {
				if out != "" {
					out += " "
				}
				out += text
			}
		}
		return truncate(out, maxSummaryLen)
	case nil:
		return ""
	default:
		return truncate(stringify(v), maxSummaryLen)
	}
}

func stringify(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
