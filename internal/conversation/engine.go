package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/apexsystem/stagebot/internal/refdata"
	"github.com/apexsystem/stagebot/internal/scoring"
	"github.com/apexsystem/stagebot/internal/sheets"
	"github.com/apexsystem/stagebot/internal/store"
	"github.com/apexsystem/stagebot/internal/texts"
)

// Engine applies inbound events to the per-user state. Durable writes are
// synchronous and their failures propagate: the authoritative record must
// never silently diverge from what the user saw acknowledged. Mirror
// writes are best-effort and never fail the interaction.
type Engine struct {
	bank     *refdata.Bank
	sessions *store.SessionStore
	durable  Durable
	mirror   sheets.Mirror // nil when the mirror is disabled
}

// New assembles an engine. mirror may be nil.
func New(bank *refdata.Bank, sessions *store.SessionStore, durable Durable, mirror sheets.Mirror) *Engine {
	return &Engine{bank: bank, sessions: sessions, durable: durable, mirror: mirror}
}

// HandleStart processes the Start event: record the profile, reset any
// prior run, and greet.
func (e *Engine) HandleStart(ctx context.Context, p Profile) ([]Effect, error) {
	if err := e.durable.UpsertUser(p.UserID, p.Username, p.FullName); err != nil {
		return nil, err
	}
	if err := e.durable.SetStatus(p.UserID, store.StatusNotStarted); err != nil {
		return nil, err
	}
	e.sessions.Reset(p.UserID)
	if err := e.durable.ClearAnswers(p.UserID); err != nil {
		return nil, err
	}

	handle := handleFor(p.UserID, p.Username)
	link := linkFor(p.UserID, p.Username)
	e.mirrorEnsure(ctx, sheets.Profile{
		UserID:   p.UserID,
		Username: p.Username,
		Handle:   handle,
		Link:     link,
		FullName: p.FullName,
		Status:   string(store.StatusNotStarted),
	})
	e.mirrorUpdate(ctx, p.UserID, sheets.RowUpdate{
		Username:       &p.Username,
		Handle:         &handle,
		Link:           &link,
		FullName:       &p.FullName,
		Status:         strPtr(string(store.StatusNotStarted)),
		RawAnswersJSON: strPtr("{}"),
	})

	return []Effect{ShowGreeting{}}, nil
}

// HandleBeginTest processes the explicit start/restart: a full reset of
// session and durable answers, then the first question.
func (e *Engine) HandleBeginTest(ctx context.Context, userID int64) ([]Effect, error) {
	e.sessions.Reset(userID)
	if err := e.durable.ClearAnswers(userID); err != nil {
		return nil, err
	}
	if err := e.durable.SetStatus(userID, store.StatusInProgress); err != nil {
		return nil, err
	}
	return []Effect{e.askQuestion(0)}, nil
}

// HandleAnswer processes AnswerSubmitted. Submissions for any question
// other than the one at the cursor are stale or duplicate deliveries and
// are ignored without mutating anything; so are submissions after the
// last question. A known question with an option key that is not valid
// for it is a hard error.
func (e *Engine) HandleAnswer(ctx context.Context, userID int64, questionID, optionKey string) ([]Effect, error) {
	sess := e.sessions.Get(userID)
	if sess.Cursor >= e.bank.Count() {
		return nil, nil
	}

	current := e.bank.QuestionAt(sess.Cursor)
	if current.ID != questionID {
		return nil, nil
	}
	if current.Option(optionKey) == nil {
		return nil, &scoring.ValidationError{QuestionID: questionID, OptionKey: optionKey}
	}

	// Durable first, then the cache: the session must never be ahead of
	// the authoritative store.
	if err := e.durable.UpsertAnswer(userID, questionID, optionKey); err != nil {
		return nil, err
	}
	if err := e.durable.SetStatus(userID, store.StatusInProgress); err != nil {
		return nil, err
	}
	sess.Answers[questionID] = optionKey
	sess.Cursor++

	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		RawAnswersJSON: strPtr(answersJSON(sess.Answers)),
		Status:         strPtr(string(store.StatusInProgress)),
	})

	if sess.Cursor < e.bank.Count() {
		return []Effect{e.askQuestion(sess.Cursor)}, nil
	}

	// Questions finished; contact form pending.
	if err := e.durable.SetStatus(userID, store.StatusCompletedNoShare); err != nil {
		return nil, err
	}
	sess.Phase = store.PhaseAwaitingName
	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		Status: strPtr(string(store.StatusCompletedNoShare)),
	})
	return []Effect{AskContactName{}}, nil
}

// HandleContactName stores the pending name and moves on to the revenue
// prompt. Ignored outside the contact-name phase.
func (e *Engine) HandleContactName(ctx context.Context, userID int64, text string) ([]Effect, error) {
	sess := e.sessions.Get(userID)
	if sess.Phase != store.PhaseAwaitingName {
		return nil, nil
	}
	sess.PendingName = strings.TrimSpace(text)
	sess.Phase = store.PhaseAwaitingRevenue

	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		FullName: &sess.PendingName,
		Status:   strPtr(string(store.StatusCompletedNoShare)),
	})
	return []Effect{AskRevenue{}}, nil
}

// HandleRevenue stores the revenue choice and finalizes. Ignored outside
// the revenue phase.
func (e *Engine) HandleRevenue(ctx context.Context, userID int64, choiceKey string) ([]Effect, error) {
	sess := e.sessions.Get(userID)
	if sess.Phase != store.PhaseAwaitingRevenue {
		return nil, nil
	}
	sess.PendingRevenue = RevenueLabel(choiceKey)

	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		Revenue: &sess.PendingRevenue,
		Status:  strPtr(string(store.StatusCompletedNoShare)),
	})
	return e.finalize(ctx, userID, sess)
}

// finalize persists contacts, scores the answer set, stores the result,
// mirrors it, and emits the result effects. The answer set comes from the
// session when it has any entries, and otherwise from the durable store —
// which recovers correctly when a restart wiped the session mid-form.
func (e *Engine) finalize(ctx context.Context, userID int64, sess *store.Session) ([]Effect, error) {
	username, err := e.durable.GetUsername(userID)
	if err != nil {
		return nil, err
	}
	handle := handleFor(userID, username)
	link := linkFor(userID, username)

	if err := e.durable.UpsertContacts(userID, store.Contacts{
		Name:     sess.PendingName,
		Telegram: handle,
		Company:  "Not provided",
		Revenue:  sess.PendingRevenue,
		TgLink:   link,
	}); err != nil {
		return nil, err
	}

	answers := scoring.Answers(sess.Answers)
	if len(answers) == 0 {
		recovered, err := e.durable.GetAnswers(userID)
		if err != nil {
			return nil, err
		}
		answers = recovered
	}

	result, err := scoring.Evaluate(answers, e.bank)
	if err != nil {
		return nil, fmt.Errorf("scoring answers for %d: %w", userID, err)
	}
	stage := e.bank.StageByName(result.Stage)

	if err := e.durable.SaveResult(userID, store.ResultRecord{
		AttemptID:            sess.AttemptID,
		Stage:                string(result.Stage),
		SecondStage:          string(result.SecondStage),
		Confidence:           result.Confidence,
		OwnerDependency:      result.Indices.OwnerDependency,
		ProcessFormalization: result.Indices.ProcessFormalization,
		ManagementContour:    result.Indices.ManagementContour,
		StageScoresJSON:      scoresJSON(result.Scores),
		RawAnswersJSON:       answersJSON(answers),
	}); err != nil {
		return nil, err
	}

	e.mirrorEnsure(ctx, sheets.Profile{
		UserID:   userID,
		Username: username,
		Handle:   handle,
		Link:     link,
		FullName: sess.PendingName,
		Status:   string(store.StatusCompletedNoShare),
	})
	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		Username:             &username,
		Handle:               &handle,
		Link:                 &link,
		FullName:             &sess.PendingName,
		Company:              strPtr("Not provided"),
		Revenue:              &sess.PendingRevenue,
		OfferOptIn:           boolPtr(false),
		Stage:                strPtr(string(result.Stage)),
		SecondStage:          strPtr(string(result.SecondStage)),
		Confidence:           &result.Confidence,
		OwnerDependency:      &result.Indices.OwnerDependency,
		ProcessFormalization: &result.Indices.ProcessFormalization,
		ManagementContour:    &result.Indices.ManagementContour,
		StageDescription:     &stage.Description,
		Risks:                strPtr(texts.Bullets(stage.Risks)),
		Do:                   strPtr(texts.Bullets(stage.Do)),
		Dont:                 strPtr(texts.Bullets(stage.Dont)),
		BookingPrefill:       strPtr(texts.BookingPrefill(stage, result, link)),
		StageScoresJSON:      strPtr(scoresJSON(result.Scores)),
		RawAnswersJSON:       strPtr(answersJSON(answers)),
		AnswersTranscript:    strPtr(texts.AnswersTranscript(e.bank, answers)),
		Status:               strPtr(string(store.StatusCompletedNoShare)),
	})

	sess.Phase = store.PhaseNone

	return []Effect{
		ShowResult{Result: result, Stage: stage},
		NotifyAdmin{
			Name:    sess.PendingName,
			Revenue: sess.PendingRevenue,
			Stage:   stage,
			Result:  result,
			Link:    link,
		},
		ScheduleOffer{UserID: userID},
	}, nil
}

// HandleOfferAccepted records the post-result opt-in. Idempotent: every
// delivery after the first leaves the stored state unchanged.
func (e *Engine) HandleOfferAccepted(ctx context.Context, userID int64) ([]Effect, error) {
	username, err := e.durable.GetUsername(userID)
	if err != nil {
		return nil, err
	}
	link := linkFor(userID, username)

	if err := e.durable.SetOfferOptIn(userID, link, true); err != nil {
		return nil, err
	}
	if err := e.durable.SetStatus(userID, store.StatusCompletedShared); err != nil {
		return nil, err
	}

	e.mirrorUpdate(ctx, userID, sheets.RowUpdate{
		OfferOptIn: boolPtr(true),
		Link:       &link,
		Status:     strPtr(string(store.StatusCompletedShared)),
	})
	return []Effect{AcceptedAck{}}, nil
}

// StoredResult returns the persisted result for a user, or nil when the
// user has not finalized yet.
func (e *Engine) StoredResult(userID int64) (*store.ResultRecord, error) {
	return e.durable.GetResult(userID)
}

// Bank exposes the reference data for transports that render prompts.
func (e *Engine) Bank() *refdata.Bank {
	return e.bank
}

func (e *Engine) askQuestion(cursor int) AskQuestion {
	return AskQuestion{
		Position: cursor + 1,
		Total:    e.bank.Count(),
		Question: e.bank.QuestionAt(cursor),
	}
}

// --- Mirror plumbing ---

// mirrorEnsure and mirrorUpdate contain mirror failures locally: logged,
// suppressed, never retried synchronously, never surfaced to the user.

func (e *Engine) mirrorEnsure(ctx context.Context, p sheets.Profile) {
	if e.mirror == nil {
		return
	}
	if err := e.mirror.EnsureUserRow(ctx, p); err != nil {
		log.Printf("mirror: ensure row for %d: %v", p.UserID, err)
	}
}

func (e *Engine) mirrorUpdate(ctx context.Context, userID int64, u sheets.RowUpdate) {
	if e.mirror == nil {
		return
	}
	if err := e.mirror.UpdateUserRow(ctx, userID, u); err != nil {
		log.Printf("mirror: update row for %d: %v", userID, err)
	}
}

// --- Helpers ---

func handleFor(userID int64, username string) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("id:%d", userID)
}

func linkFor(userID int64, username string) string {
	if username != "" {
		return "https://t.me/" + username
	}
	return fmt.Sprintf("tg://user?id=%d", userID)
}

func answersJSON(answers map[string]string) string {
	data, err := json.Marshal(answers)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func scoresJSON(v scoring.Vector) string {
	m := make(map[string]int, refdata.NumStages)
	for i, name := range refdata.CanonicalOrder {
		m[string(name)] = v[i]
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
