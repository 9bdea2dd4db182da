// Package conversation is the per-user state machine that drives the
// assessment: it consumes normalized inbound events, keeps the volatile
// session and the durable store in step, runs the scoring engine at
// completion, and hands the transport a list of effects to render.
//
// The transport serializes events per user id, so handlers never race on
// one user's state; distinct users are fully independent.
package conversation

import (
	"github.com/apexsystem/stagebot/internal/refdata"
	"github.com/apexsystem/stagebot/internal/scoring"
	"github.com/apexsystem/stagebot/internal/store"
)

// Profile is the identity payload carried by the Start event.
type Profile struct {
	UserID   int64
	Username string
	FullName string
}

// --- Inbound event payloads are plain handler arguments; see Engine. ---

// --- Outbound effects ---

// Effect is one outbound action for the transport to render. Handlers
// return effects instead of sending anything themselves, which keeps the
// state machine transport-agnostic and directly testable.
type Effect interface {
	isEffect()
}

// ShowGreeting asks the transport to present the intro and start button.
type ShowGreeting struct{}

// AskQuestion prompts the question at the current cursor. Position is
// 1-based.
type AskQuestion struct {
	Position int
	Total    int
	Question *refdata.Question
}

// AskContactName prompts for the respondent's name.
type AskContactName struct{}

// AskRevenue prompts for the revenue range.
type AskRevenue struct{}

// ShowResult presents the finalized classification.
type ShowResult struct {
	Result scoring.Result
	Stage  *refdata.Stage
}

// NotifyAdmin carries the new-respondent summary for the admin channel.
// Transports without an admin channel ignore it.
type NotifyAdmin struct {
	Name    string
	Revenue string
	OptedIn bool
	Stage   *refdata.Stage
	Result  scoring.Result
	Link    string
}

// ScheduleOffer asks the transport to deliver the deferred follow-up
// offer after its configured delay, detached from this interaction.
type ScheduleOffer struct {
	UserID int64
}

// AcceptedAck confirms the post-result offer opt-in.
type AcceptedAck struct{}

func (ShowGreeting) isEffect()   {}
func (AskQuestion) isEffect()    {}
func (AskContactName) isEffect() {}
func (AskRevenue) isEffect()     {}
func (ShowResult) isEffect()     {}
func (NotifyAdmin) isEffect()    {}
func (ScheduleOffer) isEffect()  {}
func (AcceptedAck) isEffect()    {}

// --- Revenue choices ---

// RevenueChoice is one selectable revenue range.
type RevenueChoice struct {
	Key   string
	Label string
}

// RevenueChoices is the fixed revenue keyboard, in display order.
var RevenueChoices = []RevenueChoice{
	{"rev_1", "Under $10k/mo"},
	{"rev_2", "$10k-50k/mo"},
	{"rev_3", "$50k-200k/mo"},
	{"rev_4", "$200k-1M/mo"},
	{"rev_5", "$1M+/mo"},
}

// RevenueLabel resolves a choice key to its label, falling back to the
// raw key for unknown choices.
func RevenueLabel(key string) string {
	for _, c := range RevenueChoices {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

// Durable is the authoritative-store contract the engine writes through.
// Satisfied by *store.Durable; tests substitute an in-memory fake.
type Durable interface {
	UpsertUser(userID int64, username, fullName string) error
	SetStatus(userID int64, status store.Status) error
	GetStatus(userID int64) (store.Status, error)
	ClearAnswers(userID int64) error
	UpsertAnswer(userID int64, questionID, optionKey string) error
	GetAnswers(userID int64) (map[string]string, error)
	GetUsername(userID int64) (string, error)
	UpsertContacts(userID int64, c store.Contacts) error
	SetOfferOptIn(userID int64, tgLink string, optIn bool) error
	SaveResult(userID int64, r store.ResultRecord) error
	GetResult(userID int64) (*store.ResultRecord, error)
}
