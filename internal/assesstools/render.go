package assesstools

import (
	"fmt"
	"strings"

	"github.com/apexsystem/stagebot/internal/conversation"
	"github.com/apexsystem/stagebot/internal/texts"
)

// renderEffects turns engine effects into plain text for an MCP client.
// Scheduling and admin effects have no meaning over MCP and are skipped.
func renderEffects(effects []conversation.Effect) string {
	var parts []string
	for _, effect := range effects {
		switch ef := effect.(type) {
		case conversation.AskQuestion:
			var b strings.Builder
			fmt.Fprintf(&b, "Question %d/%d: %s\n", ef.Position, ef.Total, ef.Question.Text)
			for _, opt := range ef.Question.Options {
				fmt.Fprintf(&b, "%s. %s\n", opt.Key, opt.Label)
			}
			fmt.Fprintf(&b, "(question_id: %s)", ef.Question.ID)
			parts = append(parts, b.String())

		case conversation.AskContactName:
			parts = append(parts, "All questions answered. Provide the respondent's name via assessment_contact.")

		case conversation.AskRevenue:
			var b strings.Builder
			b.WriteString("Select a revenue range via assessment_revenue:\n")
			for _, c := range conversation.RevenueChoices {
				fmt.Fprintf(&b, "%s: %s\n", c.Key, c.Label)
			}
			parts = append(parts, strings.TrimRight(b.String(), "\n"))

		case conversation.ShowResult:
			r := ef.Result
			stage := ef.Stage
			var b strings.Builder
			if texts.Hybrid(r.Confidence) {
				fmt.Fprintf(&b, "Hybrid phase: transitioning from %q to %q\n", r.SecondStage, stage.Name)
			} else {
				fmt.Fprintf(&b, "Stage: %s\n", stage.Name)
			}
			fmt.Fprintf(&b, "Confidence: %d%%\n", r.Confidence)
			fmt.Fprintf(&b, "Description: %s\n", stage.Description)
			fmt.Fprintf(&b, "Key risks:\n%s\n", texts.Bullets(stage.Risks))
			fmt.Fprintf(&b, "What to do:\n%s\n", texts.Bullets(stage.Do))
			fmt.Fprintf(&b, "What not to do:\n%s\n", texts.Bullets(stage.Dont))
			fmt.Fprintf(&b, "Indices: owner dependency %d, process formalization %d, management contour %d",
				r.Indices.OwnerDependency, r.Indices.ProcessFormalization, r.Indices.ManagementContour)
			parts = append(parts, b.String())
		}
	}
	if len(parts) == 0 {
		return "OK."
	}
	return strings.Join(parts, "\n\n")
}
