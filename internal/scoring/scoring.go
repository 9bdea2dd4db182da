// Package scoring turns a completed answer set into a stage
// classification. Everything here is a pure function of the answers and
// the question bank: same inputs, same outputs, no I/O.
package scoring

import (
	"fmt"
	"math"

	"github.com/apexsystem/stagebot/internal/refdata"
)

// Answers maps question ids to the selected option key.
type Answers map[string]string

// Vector holds the total score for every stage, indexed canonically.
// It is always fully populated; entries default to zero and never go
// negative (option scores are validated non-negative at load).
type Vector [refdata.NumStages]int

// Sum returns the total signal across all stages.
func (v Vector) Sum() int {
	total := 0
	for _, s := range v {
		total += s
	}
	return total
}

// ValidationError reports an answer referencing an unknown question id or
// an option key that is not valid for its question. Callers must not
// present invalid choices; there is no recovery here.
type ValidationError struct {
	QuestionID string
	OptionKey  string
}

func (e *ValidationError) Error() string {
	if e.OptionKey == "" {
		return fmt.Sprintf("unknown question id %q", e.QuestionID)
	}
	return fmt.Sprintf("unknown option %q for question %q", e.OptionKey, e.QuestionID)
}

// StageScores accumulates every answered question's per-stage
// contributions into a Vector. Unanswered questions contribute nothing.
func StageScores(answers Answers, bank *refdata.Bank) (Vector, error) {
	var totals Vector
	for qid, key := range answers {
		q := bank.QuestionByID(qid)
		if q == nil {
			return Vector{}, &ValidationError{QuestionID: qid}
		}
		opt := q.Option(key)
		if opt == nil {
			return Vector{}, &ValidationError{QuestionID: qid, OptionKey: key}
		}
		for stage, score := range opt.Scores {
			totals[refdata.StageIndexOf(stage)] += score
		}
	}
	return totals, nil
}

// SelectWinner picks the winning stage index from a score vector.
//
// The winner is decided by an ordered cascade; each rule filters the
// surviving tie set and the cascade stops at the first singleton:
//  1. highest total score
//  2. highest management-contour sub-score (contributions restricted to
//     the contour question triple)
//  3. canonical rank closest to the score-weighted centroid, with the
//     lowest canonical rank as the final, always-singleton rule
//
// The runner-up score is the next highest total strictly below the
// winner's (0 when every stage ties), independent of how the tie resolves.
func SelectWinner(scores Vector, answers Answers, bank *refdata.Bank) (winner, winnerScore, runnerUpScore int) {
	winnerScore = scores[0]
	for _, s := range scores {
		if s > winnerScore {
			winnerScore = s
		}
	}
	runnerUpScore = 0
	for _, s := range scores {
		if s < winnerScore && s > runnerUpScore {
			runnerUpScore = s
		}
	}

	var tied []int
	for i, s := range scores {
		if s == winnerScore {
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0], winnerScore, runnerUpScore
	}

	tied = keepMaxContour(tied, answers, bank)
	if len(tied) == 1 {
		return tied[0], winnerScore, runnerUpScore
	}

	return nearestToCentroid(tied, scores), winnerScore, runnerUpScore
}

// keepMaxContour filters the tie set to the stages with the highest
// sub-score over the contour question triple.
func keepMaxContour(tied []int, answers Answers, bank *refdata.Bank) []int {
	best := -1
	var survivors []int
	for _, idx := range tied {
		sub := contourPoints(idx, answers, bank)
		switch {
		case sub > best:
			best = sub
			survivors = []int{idx}
		case sub == best:
			survivors = append(survivors, idx)
		}
	}
	return survivors
}

// contourPoints sums one stage's contributions from the answered contour
// questions.
func contourPoints(stageIdx int, answers Answers, bank *refdata.Bank) int {
	stage := refdata.CanonicalOrder[stageIdx]
	total := 0
	for _, qid := range bank.ContourQuestionIDs() {
		key, ok := answers[qid]
		if !ok {
			continue
		}
		// Contour ids come from the bank and the answer set was already
		// validated by StageScores, so both lookups succeed.
		total += bank.QuestionByID(qid).Option(key).Scores[stage]
	}
	return total
}

// nearestToCentroid resolves the remaining tie by lifecycle position.
// The centroid is the score-weighted mean of canonical ranks (1..8),
// falling back to 1 when there is no signal at all; the surviving stage
// whose rank is numerically closest wins, and equal distances resolve to
// the lowest rank (earliest lifecycle stage).
func nearestToCentroid(tied []int, scores Vector) int {
	total := scores.Sum()
	center := 1.0
	if total > 0 {
		weighted := 0.0
		for i, s := range scores {
			weighted += float64(s) * float64(i+1)
		}
		center = weighted / float64(total)
	}

	best := tied[0]
	bestDist := math.Abs(float64(best+1) - center)
	for _, idx := range tied[1:] {
		dist := math.Abs(float64(idx+1) - center)
		if dist < bestDist {
			best = idx
			bestDist = dist
		}
	}
	return best
}

// Confidence blends the winner's dominance over the runner-up (70%) with
// its share of all collected signal (30%), as an integer percentage.
// The max(...,1) floors keep the math defined when scores are zero.
func Confidence(winnerScore, runnerUpScore, totalSum int) int {
	margin := 0.7 * float64(winnerScore-runnerUpScore) / math.Max(float64(winnerScore), 1)
	weight := 0.3 * float64(winnerScore) / math.Max(float64(totalSum), 1)
	confidence := int(math.Round(100 * (margin + weight)))
	if confidence < 0 {
		return 0
	}
	if confidence > 100 {
		return 100
	}
	return confidence
}
