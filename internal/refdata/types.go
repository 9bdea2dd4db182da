// Package refdata loads and validates the assessment's reference data:
// the ordered question bank, the fixed 8-stage lifecycle catalog, and the
// dimension labels.
//
// All validation happens once, at load time. A Bank that came out of
// NewBank is closed: every question id, option key, and stage name it can
// hand out is known-good, so downstream lookups never fail at runtime.
package refdata

import "fmt"

// --- Stage names ---

// StageName identifies one of the 8 canonical lifecycle stages.
type StageName string

const (
	StageInfancy          StageName = "Infancy"
	StageGoGo             StageName = "Go-Go"
	StageAdolescence      StageName = "Adolescence"
	StagePrime            StageName = "Prime"
	StageStability        StageName = "Stability"
	StageAristocracy      StageName = "Aristocracy"
	StageEarlyBureaucracy StageName = "Early Bureaucracy"
	StageBureaucracy      StageName = "Bureaucracy"
)

// NumStages is the fixed size of the stage catalog.
const NumStages = 8

// CanonicalOrder is the fixed lifecycle ordering. A stage's identity is
// its index here; the 1-based position is its canonical rank, used by the
// centroid tie-break.
var CanonicalOrder = [NumStages]StageName{
	StageInfancy,
	StageGoGo,
	StageAdolescence,
	StagePrime,
	StageStability,
	StageAristocracy,
	StageEarlyBureaucracy,
	StageBureaucracy,
}

var stageIndex = func() map[StageName]int {
	m := make(map[StageName]int, NumStages)
	for i, name := range CanonicalOrder {
		m[name] = i
	}
	return m
}()

// StageIndexOf returns the canonical 0-based index of a stage name,
// or -1 if the name is not one of the 8 canonical stages.
func StageIndexOf(name StageName) int {
	if i, ok := stageIndex[name]; ok {
		return i
	}
	return -1
}

// --- Records ---

// Option is one selectable answer for a question. Scores maps stage names
// to non-negative contributions; absent stages contribute 0.
type Option struct {
	Key    string            `json:"key"`
	Label  string            `json:"label"`
	Scores map[StageName]int `json:"scores"`
}

// Question is a single multiple-choice question.
type Question struct {
	ID        string   `json:"id"`
	Dimension string   `json:"dimension"`
	Text      string   `json:"text"`
	Options   []Option `json:"options"`
}

// Option returns the option with the given key, or nil if absent.
func (q *Question) Option(key string) *Option {
	for i := range q.Options {
		if q.Options[i].Key == key {
			return &q.Options[i]
		}
	}
	return nil
}

// Stage is one catalog entry: the descriptive payload shown with a result.
type Stage struct {
	Name        StageName `yaml:"name"`
	Description string    `yaml:"description"`
	Risks       []string  `yaml:"risks"`
	Do          []string  `yaml:"do"`
	Dont        []string  `yaml:"dont"`
}

// Dimension is a display grouping for questions; it plays no role in the
// scoring math.
type Dimension struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// --- Index question triples ---

// The three derived indices each read a fixed triple of questions,
// addressed by 1-based position in bank order. The contour triple doubles
// as the first tie-break signal.
const (
	contourStart = 10 // questions 10-12: management contour
	indexSpan    = 3

	ownerDepStart   = 7 // questions 7-9: owner dependency
	formalizeStart  = 4 // questions 4-6: process formalization
	minQuestionBank = contourStart + indexSpan - 1
)

// --- Bank ---

// Bank is the validated, immutable reference-data set.
type Bank struct {
	Questions  []Question
	Stages     []Stage // catalog, in canonical order
	Dimensions []Dimension

	questionsByID map[string]*Question
	stagesByName  map[StageName]*Stage
}

// NewBank validates the raw records and assembles a Bank.
//
// Rules:
//   - the stage catalog must contain exactly the 8 canonical names (any
//     input order; the Bank stores them canonically ordered)
//   - question ids must be unique and non-empty
//   - option keys must be unique within their question
//   - every score map entry must reference a canonical stage and be >= 0
//   - at least 12 questions, so the contour and index triples exist
func NewBank(questions []Question, stages []Stage, dimensions []Dimension) (*Bank, error) {
	if len(stages) != NumStages {
		return nil, fmt.Errorf("stage catalog has %d entries, want exactly %d", len(stages), NumStages)
	}
	ordered := make([]Stage, NumStages)
	seen := make(map[StageName]bool, NumStages)
	for _, s := range stages {
		idx := StageIndexOf(s.Name)
		if idx < 0 {
			return nil, fmt.Errorf("unknown stage %q in catalog", s.Name)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate stage %q in catalog", s.Name)
		}
		seen[s.Name] = true
		ordered[idx] = s
	}

	if len(questions) < minQuestionBank {
		return nil, fmt.Errorf("question bank has %d questions, want at least %d", len(questions), minQuestionBank)
	}

	byID := make(map[string]*Question, len(questions))
	for i := range questions {
		q := &questions[i]
		if q.ID == "" {
			return nil, fmt.Errorf("question %d has an empty id", i+1)
		}
		if _, dup := byID[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("question %q has no options", q.ID)
		}
		keys := make(map[string]bool, len(q.Options))
		for _, opt := range q.Options {
			if opt.Key == "" {
				return nil, fmt.Errorf("question %q has an option with an empty key", q.ID)
			}
			if keys[opt.Key] {
				return nil, fmt.Errorf("duplicate option key %q in question %q", opt.Key, q.ID)
			}
			keys[opt.Key] = true
			for stage, score := range opt.Scores {
				if StageIndexOf(stage) < 0 {
					return nil, fmt.Errorf("question %q option %q scores unknown stage %q", q.ID, opt.Key, stage)
				}
				if score < 0 {
					return nil, fmt.Errorf("question %q option %q has negative score for stage %q", q.ID, opt.Key, stage)
				}
			}
		}
		byID[q.ID] = q
	}

	byName := make(map[StageName]*Stage, NumStages)
	for i := range ordered {
		byName[ordered[i].Name] = &ordered[i]
	}

	return &Bank{
		Questions:     questions,
		Stages:        ordered,
		Dimensions:    dimensions,
		questionsByID: byID,
		stagesByName:  byName,
	}, nil
}

// Count returns the number of questions in bank order.
func (b *Bank) Count() int {
	return len(b.Questions)
}

// QuestionAt returns the question at the given 0-based cursor position.
func (b *Bank) QuestionAt(i int) *Question {
	return &b.Questions[i]
}

// QuestionByID returns the question with the given id, or nil if unknown.
func (b *Bank) QuestionByID(id string) *Question {
	return b.questionsByID[id]
}

// StageByName returns the catalog entry for a canonical stage name,
// or nil if the name is unknown.
func (b *Bank) StageByName(name StageName) *Stage {
	return b.stagesByName[name]
}

// StageAt returns the catalog entry at the given canonical index.
func (b *Bank) StageAt(i int) *Stage {
	return &b.Stages[i]
}

// tripleIDs returns the ids of the three questions starting at the given
// 1-based position.
func (b *Bank) tripleIDs(start int) [indexSpan]string {
	var ids [indexSpan]string
	for i := 0; i < indexSpan; i++ {
		ids[i] = b.Questions[start-1+i].ID
	}
	return ids
}

// ContourQuestionIDs returns the ids of the management-contour triple
// (the 10th, 11th, and 12th questions in bank order).
func (b *Bank) ContourQuestionIDs() [3]string {
	return b.tripleIDs(contourStart)
}

// OwnerDependencyQuestionIDs returns the owner-dependency index triple.
func (b *Bank) OwnerDependencyQuestionIDs() [3]string {
	return b.tripleIDs(ownerDepStart)
}

// FormalizationQuestionIDs returns the process-formalization index triple.
func (b *Bank) FormalizationQuestionIDs() [3]string {
	return b.tripleIDs(formalizeStart)
}
