// Package tools defines the contract between the chat flow and the
// context service's tools: the decision prompt sent to the backend and
// the JSON plan expected back.
package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"gemchat/internal/domain"
)

const (
	ActionRespond  = "respond"
	ActionCallTool = "call_tool"
)

// Plan is the backend's decision for a tool-assisted turn.
type Plan struct {
	Action    string         `json:"action"`
	Message   string         `json:"message,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// BuildDecisionPrompt asks the backend to either answer directly or pick
// at most one tool, replying in strict JSON.
func BuildDecisionPrompt(inventory []domain.ToolInfo, userMessage string) string {
	var b strings.Builder
	b.WriteString("You are an assistant with access to Model Context Protocol tools.\n")
	b.WriteString("You may use at most one of the tools below before answering the user.\n")
	b.WriteString("If no tool is needed, answer directly.\n\n")
	b.WriteString("Available tools:\n")
	b.WriteString(Summary(inventory))
	b.WriteString("\n\n")
	b.WriteString("Reply with JSON only, no prose and no code fences:\n")
	b.WriteString(`- no tool needed: {"action": "respond", "message": "<answer>"}` + "\n")
	b.WriteString(`- tool needed:    {"action": "call_tool", "tool": "<tool name>", "arguments": { ... }}` + "\n\n")
	b.WriteString("User request:\n")
	b.WriteString(userMessage)
	b.WriteString("\n")
	return b.String()
}

// BuildSynthesisPrompt asks the backend for the final answer given a tool's
// output.
func BuildSynthesisPrompt(userMessage, toolName string, args map[string]any, toolOutput string) string {
	argsJSON, err := json.Marshal(args)
	if err != nil || args == nil {
		argsJSON = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Below are a user request and the output of a tool that was run for it.\n")
	b.WriteString("Write the final answer for the user based on that output.\n\n")
	fmt.Fprintf(&b, "[User Request]\n%s\n\n", userMessage)
	fmt.Fprintf(&b, "[Tool]\n%s\n", toolName)
	fmt.Fprintf(&b, "[Tool Arguments]\n%s\n\n", argsJSON)
	fmt.Fprintf(&b, "[Tool Output]\n%s\n", toolOutput)
	return b.String()
}

// Summary renders the inventory as one line per tool.
func Summary(inventory []domain.ToolInfo) string {
	if len(inventory) == 0 {
		return "(no tools available)"
	}
	lines := make([]string, 0, len(inventory))
	for _, t := range inventory {
		desc := t.Description
		if desc == "" {
			desc = "no description provided"
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", t.Name, desc))
	}
	return strings.Join(lines, "\n")
}

// ParsePlan decodes the backend's JSON plan. Models wrap JSON in code
// fences often enough that those are stripped first.
func ParsePlan(raw string) (*Plan, error) {
	cleaned := stripFences(strings.TrimSpace(raw))

	var plan Plan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("parsing tool plan: %w", err)
	}

	switch plan.Action {
	case ActionRespond, ActionCallTool:
		return &plan, nil
	default:
		return nil, fmt.Errorf("unknown plan action %q", plan.Action)
	}
}

// Known reports whether name is in the advertised inventory.
func Known(inventory []domain.ToolInfo, name string) bool {
	for _, t := range inventory {
		if t.Name == name {
			return true
		}
	}
	return false
}

func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
