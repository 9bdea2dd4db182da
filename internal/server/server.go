// Package server wires the MCP transport: it registers the assessment
// tools against a shared conversation engine. This is a composition root;
// no business logic lives here.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/apexsystem/stagebot/internal/assesstools"
	"github.com/apexsystem/stagebot/internal/conversation"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates the MCP server with every assessment tool registered
// against the given engine.
func New(engine *conversation.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"stagebot",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(instructions()),
	)

	startTool := assesstools.NewStartTool(engine)
	s.AddTool(startTool.Definition(), startTool.Handle)

	answerTool := assesstools.NewAnswerTool(engine)
	s.AddTool(answerTool.Definition(), answerTool.Handle)

	contactTool := assesstools.NewContactTool(engine)
	s.AddTool(contactTool.Definition(), contactTool.Handle)

	revenueTool := assesstools.NewRevenueTool(engine)
	s.AddTool(revenueTool.Definition(), revenueTool.Handle)

	acceptTool := assesstools.NewAcceptOfferTool(engine)
	s.AddTool(acceptTool.Definition(), acceptTool.Handle)

	resultTool := assesstools.NewResultTool(engine)
	s.AddTool(resultTool.Definition(), resultTool.Handle)

	return s
}

func instructions() string {
	return "Administers a 12-question organizational-maturity assessment. " +
		"Call assessment_start for a user, submit each answer with " +
		"assessment_answer, then assessment_contact and assessment_revenue " +
		"to finalize. assessment_result re-reads a finalized classification."
}
