package scoring

import (
	"math"

	"github.com/apexsystem/stagebot/internal/refdata"
)

// Indices are the three derived 0-100 metrics. Each reads a fixed triple
// of questions and maps the chosen option key through its own point table;
// the tables are deliberately not all monotonic in the option order.
type Indices struct {
	OwnerDependency      int
	ProcessFormalization int
	ManagementContour    int
}

// Per-index option point tables, 0-3 points each.
var (
	ownerDependencyPoints = map[string]int{"A": 3, "B": 2, "C": 1, "D": 0}
	formalizationPoints   = map[string]int{"A": 0, "B": 1, "C": 2, "D": 3}
	contourIndexPoints    = map[string]int{"A": 0, "B": 1, "C": 3, "D": 1}
)

// maxTriplePoints is the rescaling denominator: three questions at three
// points each.
const maxTriplePoints = 9

// ComputeIndices derives the three indices from an answer set. A missing
// answer contributes 0 points; it is never an error.
func ComputeIndices(answers Answers, bank *refdata.Bank) Indices {
	return Indices{
		OwnerDependency:      tripleScore(answers, bank.OwnerDependencyQuestionIDs(), ownerDependencyPoints),
		ProcessFormalization: tripleScore(answers, bank.FormalizationQuestionIDs(), formalizationPoints),
		ManagementContour:    tripleScore(answers, bank.ContourQuestionIDs(), contourIndexPoints),
	}
}

func tripleScore(answers Answers, ids [3]string, points map[string]int) int {
	total := 0
	for _, qid := range ids {
		total += points[answers[qid]]
	}
	return int(math.Round(100 * float64(total) / maxTriplePoints))
}
