package chat

import (
	"context"
	"fmt"
	"strings"

	"gemchat/internal/app/tools"
	"gemchat/internal/errclass"
)

// tryToolTurn attempts a tool-assisted answer: ask the backend for a plan,
// run at most one tool, synthesize the final answer. Every failure in this
// flow degrades to (_, false) so the caller falls back to the plain send;
// a tool turn must never make a turn worse than having no tools at all.
func (a *App) tryToolTurn(ctx context.Context, text string) (string, bool) {
	if len(a.toolInventory) == 0 {
		return "", false
	}

	planRaw, err := a.conv.Generate(ctx, tools.BuildDecisionPrompt(a.toolInventory, text))
	if err != nil {
		out := errclass.Classify(err, errclass.OriginConversation)
		a.log.Warn("tool plan request failed (continuing)", "detail", out.LogMessage)
		return "", false
	}

	plan, err := tools.ParsePlan(planRaw)
	if err != nil {
		a.log.Warn("tool plan unparseable (continuing)", "error", err)
		return "", false
	}

	if plan.Action == tools.ActionRespond {
		if msg := strings.TrimSpace(plan.Message); msg != "" {
			return msg, true
		}
		return "", false
	}

	if plan.Tool == "" || !tools.Known(a.toolInventory, plan.Tool) {
		a.log.Warn("planned tool not in inventory (continuing)", "tool", plan.Tool)
		return "", false
	}

	result, err := a.ctxSource.CallTool(ctx, plan.Tool, plan.Arguments)
	if err != nil {
		out := errclass.Classify(err, errclass.OriginContext)
		a.log.Warn("tool call failed (continuing)", "tool", plan.Tool, "detail", out.LogMessage)
		return "", false
	}

	if result.IsError {
		detail := result.Text
		if detail == "" {
			detail = "the tool reported an error"
		}
		return fmt.Sprintf("Tool %s failed. Details: %s", plan.Tool, detail), true
	}

	answer, err := a.conv.Generate(ctx, tools.BuildSynthesisPrompt(text, plan.Tool, plan.Arguments, result.Text))
	if err != nil {
		out := errclass.Classify(err, errclass.OriginConversation)
		a.log.Warn("tool answer synthesis failed (continuing)", "detail", out.LogMessage)
		// The tool output is still better than dropping the turn.
		if result.Text != "" {
			return result.Text, true
		}
		return "", false
	}

	return answer, true
}
