// Package assesstools exposes the assessment as MCP tools, a second
// transport over the same conversation engine the Telegram adapter uses.
//
// Each tool is a struct holding its dependencies and exposing a
// Definition plus a Handle compatible with mcp-go's CallToolRequest
// signature. The MCP client supplies the user id explicitly; the engine's
// per-user semantics are identical across transports.
package assesstools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/apexsystem/stagebot/internal/conversation"
)

// --- StartTool ---

// StartTool handles assessment_start: Reset plus the first question.
type StartTool struct {
	engine *conversation.Engine
}

// NewStartTool creates a StartTool.
func NewStartTool(engine *conversation.Engine) *StartTool {
	return &StartTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_start.
func (t *StartTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_start",
		mcp.WithDescription(
			"Start (or restart) the maturity assessment for a user. "+
				"Discards any previous answers and returns the first question.",
		),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
		mcp.WithString("username",
			mcp.Description("Optional handle for the contact record"),
		),
		mcp.WithString("full_name",
			mcp.Description("Optional display name for the contact record"),
		),
	)
}

// Handle processes the assessment_start tool call.
func (t *StartTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	if userID == 0 {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	_, err := t.engine.HandleStart(ctx, conversation.Profile{
		UserID:   userID,
		Username: req.GetString("username", ""),
		FullName: req.GetString("full_name", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to start: %v", err)), nil
	}

	effects, err := t.engine.HandleBeginTest(ctx, userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to begin: %v", err)), nil
	}
	return mcp.NewToolResultText(renderEffects(effects)), nil
}

// --- AnswerTool ---

// AnswerTool handles assessment_answer.
type AnswerTool struct {
	engine *conversation.Engine
}

// NewAnswerTool creates an AnswerTool.
func NewAnswerTool(engine *conversation.Engine) *AnswerTool {
	return &AnswerTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_answer.
func (t *AnswerTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_answer",
		mcp.WithDescription(
			"Submit an answer for the question currently being asked. "+
				"Answers for any other question are ignored (stale delivery).",
		),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
		mcp.WithString("question_id",
			mcp.Required(),
			mcp.Description("Id of the question being answered"),
		),
		mcp.WithString("option_key",
			mcp.Required(),
			mcp.Description("Selected option key (a single letter)"),
		),
	)
}

// Handle processes the assessment_answer tool call.
func (t *AnswerTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	questionID := req.GetString("question_id", "")
	optionKey := req.GetString("option_key", "")
	if userID == 0 || questionID == "" || optionKey == "" {
		return mcp.NewToolResultError("'user_id', 'question_id' and 'option_key' are required"), nil
	}

	effects, err := t.engine.HandleAnswer(ctx, userID, questionID, optionKey)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record answer: %v", err)), nil
	}
	if len(effects) == 0 {
		return mcp.NewToolResultText("Answer ignored: not the question currently being asked."), nil
	}
	return mcp.NewToolResultText(renderEffects(effects)), nil
}

// --- ContactTool ---

// ContactTool handles assessment_contact (the respondent's name).
type ContactTool struct {
	engine *conversation.Engine
}

// NewContactTool creates a ContactTool.
func NewContactTool(engine *conversation.Engine) *ContactTool {
	return &ContactTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_contact.
func (t *ContactTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_contact",
		mcp.WithDescription("Provide the respondent's name after the last question."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Respondent's name"),
		),
	)
}

// Handle processes the assessment_contact tool call.
func (t *ContactTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	name := req.GetString("name", "")
	if userID == 0 || name == "" {
		return mcp.NewToolResultError("'user_id' and 'name' are required"), nil
	}

	effects, err := t.engine.HandleContactName(ctx, userID, name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record name: %v", err)), nil
	}
	if len(effects) == 0 {
		return mcp.NewToolResultText("Ignored: the assessment is not waiting for a name."), nil
	}
	return mcp.NewToolResultText(renderEffects(effects)), nil
}

// --- RevenueTool ---

// RevenueTool handles assessment_revenue, which also finalizes.
type RevenueTool struct {
	engine *conversation.Engine
}

// NewRevenueTool creates a RevenueTool.
func NewRevenueTool(engine *conversation.Engine) *RevenueTool {
	return &RevenueTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_revenue.
func (t *RevenueTool) Definition() mcp.Tool {
	keys := make([]string, len(conversation.RevenueChoices))
	for i, c := range conversation.RevenueChoices {
		keys[i] = c.Key
	}
	return mcp.NewTool("assessment_revenue",
		mcp.WithDescription(
			"Select the revenue range and finalize the assessment. "+
				"Valid keys: "+strings.Join(keys, ", ")+".",
		),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
		mcp.WithString("choice_key",
			mcp.Required(),
			mcp.Description("Revenue choice key"),
		),
	)
}

// Handle processes the assessment_revenue tool call.
func (t *RevenueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	choiceKey := req.GetString("choice_key", "")
	if userID == 0 || choiceKey == "" {
		return mcp.NewToolResultError("'user_id' and 'choice_key' are required"), nil
	}

	effects, err := t.engine.HandleRevenue(ctx, userID, choiceKey)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to finalize: %v", err)), nil
	}
	if len(effects) == 0 {
		return mcp.NewToolResultText("Ignored: the assessment is not waiting for a revenue choice."), nil
	}
	return mcp.NewToolResultText(renderEffects(effects)), nil
}

// --- AcceptOfferTool ---

// AcceptOfferTool handles assessment_accept_offer.
type AcceptOfferTool struct {
	engine *conversation.Engine
}

// NewAcceptOfferTool creates an AcceptOfferTool.
func NewAcceptOfferTool(engine *conversation.Engine) *AcceptOfferTool {
	return &AcceptOfferTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_accept_offer.
func (t *AcceptOfferTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_accept_offer",
		mcp.WithDescription(
			"Accept the personal-recommendations offer. Idempotent: "+
				"repeated calls leave the record unchanged.",
		),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
	)
}

// Handle processes the assessment_accept_offer tool call.
func (t *AcceptOfferTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	if userID == 0 {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	if _, err := t.engine.HandleOfferAccepted(ctx, userID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record opt-in: %v", err)), nil
	}
	return mcp.NewToolResultText("Opt-in recorded."), nil
}

// --- ResultTool ---

// ResultTool handles assessment_result: reads the stored classification.
type ResultTool struct {
	engine *conversation.Engine
}

// NewResultTool creates a ResultTool.
func NewResultTool(engine *conversation.Engine) *ResultTool {
	return &ResultTool{engine: engine}
}

// Definition returns the MCP tool definition for assessment_result.
func (t *ResultTool) Definition() mcp.Tool {
	return mcp.NewTool("assessment_result",
		mcp.WithDescription("Fetch the stored result of a finalized assessment."),
		mcp.WithNumber("user_id",
			mcp.Required(),
			mcp.Description("Numeric user identifier"),
		),
	)
}

// Handle processes the assessment_result tool call.
func (t *ResultTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := int64(req.GetInt("user_id", 0))
	if userID == 0 {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}

	r, err := t.engine.StoredResult(userID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read result: %v", err)), nil
	}
	if r == nil {
		return mcp.NewToolResultText("No result yet: the assessment has not been finalized."), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Stage: %s\nSecond stage: %s\nConfidence: %d%%\n"+
			"Owner dependency: %d\nProcess formalization: %d\nManagement contour: %d\n"+
			"Stage scores: %s",
		r.Stage, r.SecondStage, r.Confidence,
		r.OwnerDependency, r.ProcessFormalization, r.ManagementContour,
		r.StageScoresJSON)), nil
}
