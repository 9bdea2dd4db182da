// Package texts holds the user-facing message copy and the renderers
// that turn scoring results into chat text. Rendering is pure string
// assembly; no transport or storage concerns live here.
package texts

import (
	"fmt"
	"strings"

	"github.com/apexsystem/stagebot/internal/refdata"
	"github.com/apexsystem/stagebot/internal/scoring"
)

// Static copy.
const (
	Greeting = "👋 Welcome to the organizational maturity assessment.\n\n" +
		"12 quick questions about how your company actually runs — " +
		"decisions, processes, owner involvement, and management KPIs."

	Duration = "⏱ Takes about 3 minutes."

	Motivation = "At the end you get your lifecycle stage, the key risks " +
		"for that stage, and three management indices."

	StartButton = "🚀 Start the test"

	TestStarted = "🚀 Starting the test."

	ContactsIntro = "Almost done! A couple of details so we can prepare " +
		"your personalized summary."

	AskName = "👤 Your name:"

	AskRevenue = "💰 Pick your monthly revenue range:"

	OfferButton = "🔍 Get personal recommendations"

	OfferMessage = "🎁 The offer still stands!\n\n" +
		"Your report covered the stage-level recommendations. If you want " +
		"a personal breakdown based on your specific answers — tap the " +
		"button below."

	AcceptedToast = "Great, we'll reach out on Telegram ✅"

	AcceptedFollowUp = "Got it. We'll send your personal recommendations on Telegram shortly."

	// hybridThreshold is the confidence below which the result is framed
	// as a transition between two stages rather than a single stage.
	hybridThreshold = 40
)

// progressWidth is the number of cells in the question progress bar.
const progressWidth = 5

// ProgressBar renders a coarse progress indicator for question pos of total.
func ProgressBar(pos, total int) string {
	filled := int(float64(pos)/float64(total)*progressWidth + 0.5)
	if filled > progressWidth {
		filled = progressWidth
	}
	return strings.Repeat("🟩", filled) + strings.Repeat("🟨", progressWidth-filled)
}

var dimensionEmoji = map[string]string{
	"decisions":              "🧠",
	"processes":              "⚙️",
	"owner_dependency":       "👤",
	"kpi_contour":            "📊",
	"decision_speed":         "⏱️",
	"roles_conflicts":        "🤝",
	"growth_sustainability":  "📈",
	"finance_predictability": "💰",
}

// QuestionEmoji returns the marker for a question's dimension.
func QuestionEmoji(q *refdata.Question) string {
	if e, ok := dimensionEmoji[q.Dimension]; ok {
		return e
	}
	return "🔹"
}

// Question renders one question prompt with its progress header and the
// lettered option list. pos is 1-based.
func Question(q *refdata.Question, pos, total int) string {
	var options []string
	for _, opt := range q.Options {
		options = append(options, fmt.Sprintf("<b>%s.</b> %s", opt.Key, opt.Label))
	}
	return fmt.Sprintf("<b>Question %d/%d %s</b>\n\n%s %s\n\n%s",
		pos, total, ProgressBar(pos, total), QuestionEmoji(q), q.Text,
		strings.Join(options, "\n"))
}

// Bullets renders a list as "- item" lines.
func Bullets(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

// Hybrid reports whether a confidence value should be presented as a
// transition between stages.
func Hybrid(confidence int) bool {
	return confidence < hybridThreshold
}

// Result renders the full result message for the user.
func Result(stage *refdata.Stage, secondStage refdata.StageName, r scoring.Result) string {
	var header string
	if Hybrid(r.Confidence) {
		header = fmt.Sprintf(
			"⚠ The business is in a hybrid phase.\n"+
				"Transitioning from %q to %q\n\n"+
				"Traits of different maturity levels coexist at the same time.",
			secondStage, stage.Name)
	} else {
		header = fmt.Sprintf("<b>🏁 Your stage: %s</b>", stage.Name)
	}

	return fmt.Sprintf(
		"%s\n\n"+
			"<b>🧭 Description</b>\n%s\n\n"+
			"<b>⚠️ Key risks</b>\n%s\n\n"+
			"<b>✅ What to do</b>\n%s\n\n"+
			"<b>⛔ What not to do</b>\n%s\n\n"+
			"<b>📈 Indices (0-100)</b>\n"+
			"- Owner dependency: %d\n"+
			"- Process formalization: %d\n"+
			"- Management contour: %d",
		header, stage.Description,
		Bullets(stage.Risks), Bullets(stage.Do), Bullets(stage.Dont),
		r.Indices.OwnerDependency, r.Indices.ProcessFormalization, r.Indices.ManagementContour)
}

// BookingPrefill renders the copy-paste message a respondent can send to
// book a personal review.
func BookingPrefill(stage *refdata.Stage, r scoring.Result, handle string) string {
	return fmt.Sprintf(
		"Hello! I'd like the full review of my assessment results.\n\n"+
			"Stage: %s\n"+
			"Confidence: %d%%\n"+
			"Indices:\n"+
			"- Owner dependency: %d\n"+
			"- Process formalization: %d\n"+
			"- Management contour: %d\n\n"+
			"Summary:\n"+
			"Description: %s\n\n"+
			"Key risks:\n%s\n\n"+
			"What to do:\n%s\n\n"+
			"What not to do:\n%s\n\n"+
			"My Telegram: %s",
		stage.Name, r.Confidence,
		r.Indices.OwnerDependency, r.Indices.ProcessFormalization, r.Indices.ManagementContour,
		stage.Description, Bullets(stage.Risks), Bullets(stage.Do), Bullets(stage.Dont),
		handle)
}

// AnswersTranscript renders a numbered, human-readable transcript of the
// answer set in bank order, for the mirror.
func AnswersTranscript(bank *refdata.Bank, answers map[string]string) string {
	lines := make([]string, 0, bank.Count())
	for i := 0; i < bank.Count(); i++ {
		q := bank.QuestionAt(i)
		label := "no answer given"
		if key, ok := answers[q.ID]; ok {
			if opt := q.Option(key); opt != nil {
				label = opt.Label
			}
		}
		lines = append(lines, fmt.Sprintf("%d. Q: %q — answer: %s.", i+1, q.Text, label))
	}
	return strings.Join(lines, "\n")
}

// AdminSummary renders the new-respondent notification for the admin chat.
func AdminSummary(name, revenue string, optedIn bool, stage *refdata.Stage, secondStage refdata.StageName, r scoring.Result, link string) string {
	if strings.TrimSpace(name) == "" {
		name = "not provided"
	}
	if strings.TrimSpace(revenue) == "" {
		revenue = "not provided"
	}
	shared := "No"
	if optedIn {
		shared = "Yes"
	}

	scoreLines := make([]string, refdata.NumStages)
	for i, stageName := range refdata.CanonicalOrder {
		scoreLines[i] = fmt.Sprintf("- %s: %d", stageName, r.Scores[i])
	}

	return fmt.Sprintf(
		"🆕 New respondent\n\n"+
			"👤 Name: %s\n"+
			"💰 Revenue: %s\n"+
			"📨 Shared Telegram link: %s\n\n"+
			"📊 Winning stage: %s\n"+
			"📊 Second stage: %s\n"+
			"📈 Result confidence: %d%%\n\n"+
			"🔹 Owner dependency: %d\n"+
			"🔹 Process formalization: %d\n"+
			"🔹 Management contour: %d\n\n"+
			"🧮 Stage scores:\n%s\n\n"+
			"🧭 Description:\n%s\n\n"+
			"⚠️ Risks:\n%s\n\n"+
			"✅ What to do:\n%s\n\n"+
			"⛔ What not to do:\n%s\n\n"+
			"🔗 Profile: %s",
		name, revenue, shared,
		stage.Name, secondStage, r.Confidence,
		r.Indices.OwnerDependency, r.Indices.ProcessFormalization, r.Indices.ManagementContour,
		strings.Join(scoreLines, "\n"),
		stage.Description, Bullets(stage.Risks), Bullets(stage.Do), Bullets(stage.Dont),
		link)
}
