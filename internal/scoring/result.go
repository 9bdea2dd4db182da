package scoring

import "github.com/apexsystem/stagebot/internal/refdata"

// Result is the full classification for one completed answer set.
type Result struct {
	Stage         refdata.StageName
	SecondStage   refdata.StageName // highest-scoring stage distinct from the winner
	WinnerScore   int
	RunnerUpScore int
	Confidence    int
	Indices       Indices
	Scores        Vector
}

// Evaluate runs the whole engine: totals, winner cascade, confidence, and
// indices. The only error case is an answer set referencing unknown
// question ids or option keys.
func Evaluate(answers Answers, bank *refdata.Bank) (Result, error) {
	scores, err := StageScores(answers, bank)
	if err != nil {
		return Result{}, err
	}

	winner, winnerScore, runnerUp := SelectWinner(scores, answers, bank)

	return Result{
		Stage:         refdata.CanonicalOrder[winner],
		SecondStage:   secondStage(scores, winner),
		WinnerScore:   winnerScore,
		RunnerUpScore: runnerUp,
		Confidence:    Confidence(winnerScore, runnerUp, scores.Sum()),
		Indices:       ComputeIndices(answers, bank),
		Scores:        scores,
	}, nil
}

// secondStage returns the highest-scoring stage other than the winner,
// preferring the earliest canonical rank on equal scores. When every
// other stage is silent it still names one, for the hybrid-phase header.
func secondStage(scores Vector, winner int) refdata.StageName {
	best := -1
	bestScore := -1
	for i, s := range scores {
		if i == winner {
			continue
		}
		if s > bestScore {
			best = i
			bestScore = s
		}
	}
	if best < 0 {
		return refdata.CanonicalOrder[winner]
	}
	return refdata.CanonicalOrder[best]
}
