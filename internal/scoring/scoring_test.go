package scoring

import (
	"errors"
	"fmt"
	"testing"

	"github.com/apexsystem/stagebot/internal/refdata"
)

// --- Helpers ---

// optionScores maps question id -> option key -> per-stage scores.
// testBank builds a minimal valid 12-question bank (Q01..Q12, options
// A..D) where only the listed options carry any score.
func testBank(t *testing.T, scores map[string]map[string]map[refdata.StageName]int) *refdata.Bank {
	t.Helper()

	questions := make([]refdata.Question, 12)
	for i := range questions {
		id := fmt.Sprintf("Q%02d", i+1)
		options := make([]refdata.Option, 4)
		for j, key := range []string{"A", "B", "C", "D"} {
			options[j] = refdata.Option{Key: key, Label: key + " option", Scores: scores[id][key]}
		}
		questions[i] = refdata.Question{ID: id, Dimension: "decisions", Text: id + "?", Options: options}
	}

	stages := make([]refdata.Stage, refdata.NumStages)
	for i, name := range refdata.CanonicalOrder {
		stages[i] = refdata.Stage{Name: name, Description: string(name)}
	}

	bank, err := refdata.NewBank(questions, stages, nil)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return bank
}

// --- StageScores ---

func TestStageScores_EmptyAnswers(t *testing.T) {
	bank := testBank(t, nil)
	scores, err := StageScores(Answers{}, bank)
	if err != nil {
		t.Fatalf("StageScores: %v", err)
	}
	if len(scores) != refdata.NumStages {
		t.Fatalf("vector has %d entries, want %d", len(scores), refdata.NumStages)
	}
	for i, s := range scores {
		if s != 0 {
			t.Errorf("scores[%d] = %d, want 0", i, s)
		}
	}
}

func TestStageScores_AccumulatesContributions(t *testing.T) {
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StageInfancy: 2, refdata.StageGoGo: 1}},
		"Q02": {"B": {refdata.StageInfancy: 3}},
	})

	scores, err := StageScores(Answers{"Q01": "A", "Q02": "B"}, bank)
	if err != nil {
		t.Fatalf("StageScores: %v", err)
	}
	if got := scores[refdata.StageIndexOf(refdata.StageInfancy)]; got != 5 {
		t.Errorf("Infancy = %d, want 5", got)
	}
	if got := scores[refdata.StageIndexOf(refdata.StageGoGo)]; got != 1 {
		t.Errorf("Go-Go = %d, want 1", got)
	}
	for _, s := range scores {
		if s < 0 {
			t.Errorf("negative score %d in vector", s)
		}
	}
}

func TestStageScores_UnknownQuestion(t *testing.T) {
	bank := testBank(t, nil)
	_, err := StageScores(Answers{"Q99": "A"}, bank)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.QuestionID != "Q99" {
		t.Errorf("QuestionID = %q, want Q99", verr.QuestionID)
	}
}

func TestStageScores_UnknownOptionKey(t *testing.T) {
	bank := testBank(t, nil)
	_, err := StageScores(Answers{"Q01": "Z"}, bank)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.OptionKey != "Z" {
		t.Errorf("OptionKey = %q, want Z", verr.OptionKey)
	}
}

// --- SelectWinner ---

func TestSelectWinner_ClearWinner(t *testing.T) {
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StagePrime: 7, refdata.StageGoGo: 4}},
	})
	answers := Answers{"Q01": "A"}
	scores, _ := StageScores(answers, bank)

	winner, winnerScore, runnerUp := SelectWinner(scores, answers, bank)
	if refdata.CanonicalOrder[winner] != refdata.StagePrime {
		t.Errorf("winner = %s, want Prime", refdata.CanonicalOrder[winner])
	}
	if winnerScore != 7 || runnerUp != 4 {
		t.Errorf("scores = (%d, %d), want (7, 4)", winnerScore, runnerUp)
	}
}

func TestSelectWinner_Deterministic(t *testing.T) {
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StageInfancy: 5, refdata.StagePrime: 5, refdata.StageBureaucracy: 3}},
		"Q10": {"B": {refdata.StageInfancy: 1, refdata.StagePrime: 1}},
	})
	answers := Answers{"Q01": "A", "Q10": "B"}
	scores, _ := StageScores(answers, bank)

	w0, ws0, r0 := SelectWinner(scores, answers, bank)
	for i := 0; i < 50; i++ {
		w, ws, r := SelectWinner(scores, answers, bank)
		if w != w0 || ws != ws0 || r != r0 {
			t.Fatalf("run %d: (%d,%d,%d) != (%d,%d,%d)", i, w, ws, r, w0, ws0, r0)
		}
	}
}

// Equal totals, different contour sub-scores: the contour decides.
func TestSelectWinner_ContourTieBreak(t *testing.T) {
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StageInfancy: 8, refdata.StageGoGo: 5}},
		"Q10": {"A": {refdata.StageInfancy: 2, refdata.StageGoGo: 5}},
	})
	answers := Answers{"Q01": "A", "Q10": "A"}
	scores, _ := StageScores(answers, bank)

	winner, winnerScore, _ := SelectWinner(scores, answers, bank)
	if refdata.CanonicalOrder[winner] != refdata.StageGoGo {
		t.Errorf("winner = %s, want Go-Go (higher contour sub-score)", refdata.CanonicalOrder[winner])
	}
	if winnerScore != 10 {
		t.Errorf("winnerScore = %d, want 10", winnerScore)
	}
}

// Equal totals and equal contour: centroid proximity decides.
func TestSelectWinner_CentroidTieBreak(t *testing.T) {
	// Go-Go (rank 2) and Prime (rank 4) tie at 6 with no contour signal;
	// Bureaucracy's 3 points pull the centroid to exactly 4.0.
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StageGoGo: 6, refdata.StagePrime: 6, refdata.StageBureaucracy: 3}},
	})
	answers := Answers{"Q01": "A"}
	scores, _ := StageScores(answers, bank)

	winner, _, _ := SelectWinner(scores, answers, bank)
	if refdata.CanonicalOrder[winner] != refdata.StagePrime {
		t.Errorf("winner = %s, want Prime (nearest to centroid)", refdata.CanonicalOrder[winner])
	}
}

// Equal totals, equal contour, equal centroid distance: lowest canonical
// rank wins.
func TestSelectWinner_LowestRankTieBreak(t *testing.T) {
	// Infancy (rank 1) and Adolescence (rank 3), 5 points each:
	// centroid = 2.0, both at distance 1.0.
	bank := testBank(t, map[string]map[string]map[refdata.StageName]int{
		"Q01": {"A": {refdata.StageInfancy: 5, refdata.StageAdolescence: 5}},
	})
	answers := Answers{"Q01": "A"}
	scores, _ := StageScores(answers, bank)

	winner, _, _ := SelectWinner(scores, answers, bank)
	if refdata.CanonicalOrder[winner] != refdata.StageInfancy {
		t.Errorf("winner = %s, want Infancy (lowest canonical rank)", refdata.CanonicalOrder[winner])
	}
}

func TestSelectWinner_AllZeroScores(t *testing.T) {
	bank := testBank(t, nil)
	var scores Vector

	winner, winnerScore, runnerUp := SelectWinner(scores, Answers{}, bank)
	if refdata.CanonicalOrder[winner] != refdata.StageInfancy {
		t.Errorf("winner = %s, want Infancy (centroid falls back to rank 1)", refdata.CanonicalOrder[winner])
	}
	if winnerScore != 0 || runnerUp != 0 {
		t.Errorf("scores = (%d, %d), want (0, 0)", winnerScore, runnerUp)
	}
}

// Full scenario from the tie-break design: 12 answered questions, two
// stages at 10, contour decides, runner-up is the next distinct total.
func TestSelectWinner_FullScenario(t *testing.T) {
	scores := map[string]map[string]map[refdata.StageName]int{
		// Stage totals: Infancy 10, Go-Go 10, Prime 7.
		"Q01": {"A": {refdata.StageInfancy: 4, refdata.StageGoGo: 3, refdata.StagePrime: 7}},
		"Q02": {"A": {refdata.StageInfancy: 4, refdata.StageGoGo: 2}},
		// Contour: Infancy 2, Go-Go 5.
		"Q10": {"A": {refdata.StageInfancy: 1, refdata.StageGoGo: 2}},
		"Q11": {"A": {refdata.StageInfancy: 1, refdata.StageGoGo: 2}},
		"Q12": {"A": {refdata.StageGoGo: 1}},
	}
	bank := testBank(t, scores)

	answers := Answers{}
	for i := 1; i <= 12; i++ {
		answers[fmt.Sprintf("Q%02d", i)] = "A"
	}
	vector, err := StageScores(answers, bank)
	if err != nil {
		t.Fatalf("StageScores: %v", err)
	}

	winner, winnerScore, runnerUp := SelectWinner(vector, answers, bank)
	if refdata.CanonicalOrder[winner] != refdata.StageGoGo {
		t.Errorf("winner = %s, want Go-Go", refdata.CanonicalOrder[winner])
	}
	if winnerScore != 10 {
		t.Errorf("winnerScore = %d, want 10", winnerScore)
	}
	if runnerUp != 7 {
		t.Errorf("runnerUp = %d, want 7 (next highest distinct total)", runnerUp)
	}
}

// --- Confidence ---

func TestConfidence_Bounds(t *testing.T) {
	cases := []struct {
		winner, runnerUp, total int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{10, 10, 40},
		{10, 5, 20},
		{36, 0, 36},
		{100, 99, 500},
	}
	for _, tc := range cases {
		got := Confidence(tc.winner, tc.runnerUp, tc.total)
		if got < 0 || got > 100 {
			t.Errorf("Confidence(%d, %d, %d) = %d, out of [0,100]",
				tc.winner, tc.runnerUp, tc.total, got)
		}
	}
}

func TestConfidence_Values(t *testing.T) {
	cases := []struct {
		name                    string
		winner, runnerUp, total int
		want                    int
	}{
		{"dominant winner", 36, 0, 36, 100},
		{"half margin half weight", 10, 5, 20, 50},
		{"full tie", 10, 10, 40, 8},
		{"no signal", 0, 0, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Confidence(tc.winner, tc.runnerUp, tc.total); got != tc.want {
				t.Errorf("Confidence(%d, %d, %d) = %d, want %d",
					tc.winner, tc.runnerUp, tc.total, got, tc.want)
			}
		})
	}
}
