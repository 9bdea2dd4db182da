package scoring

import (
	"testing"
)

func TestComputeIndices_AllMissing(t *testing.T) {
	bank := testBank(t, nil)
	got := ComputeIndices(Answers{}, bank)
	if got != (Indices{}) {
		t.Errorf("indices = %+v, want all zero", got)
	}
}

func TestComputeIndices_AllMaximum(t *testing.T) {
	bank := testBank(t, nil)
	// Maximum points: A for owner dependency (Q07-Q09), D for process
	// formalization (Q04-Q06), C for management contour (Q10-Q12).
	answers := Answers{
		"Q07": "A", "Q08": "A", "Q09": "A",
		"Q04": "D", "Q05": "D", "Q06": "D",
		"Q10": "C", "Q11": "C", "Q12": "C",
	}
	got := ComputeIndices(answers, bank)
	want := Indices{OwnerDependency: 100, ProcessFormalization: 100, ManagementContour: 100}
	if got != want {
		t.Errorf("indices = %+v, want %+v", got, want)
	}
}

func TestComputeIndices_PartialAnswers(t *testing.T) {
	bank := testBank(t, nil)
	// One owner-dependency answer worth 3 points: round(100*3/9) = 33.
	got := ComputeIndices(Answers{"Q07": "A"}, bank)
	if got.OwnerDependency != 33 {
		t.Errorf("OwnerDependency = %d, want 33", got.OwnerDependency)
	}
	if got.ProcessFormalization != 0 || got.ManagementContour != 0 {
		t.Errorf("other indices = %+v, want 0", got)
	}
}

// The contour table is not monotonic in option order: D is worth less
// than C.
func TestComputeIndices_ContourNonMonotonic(t *testing.T) {
	bank := testBank(t, nil)
	allC := ComputeIndices(Answers{"Q10": "C", "Q11": "C", "Q12": "C"}, bank)
	allD := ComputeIndices(Answers{"Q10": "D", "Q11": "D", "Q12": "D"}, bank)
	if allC.ManagementContour != 100 {
		t.Errorf("all-C contour = %d, want 100", allC.ManagementContour)
	}
	if allD.ManagementContour != 33 {
		t.Errorf("all-D contour = %d, want 33", allD.ManagementContour)
	}
}

func TestComputeIndices_UnknownKeyScoresZero(t *testing.T) {
	bank := testBank(t, nil)
	// Index lookups never fail: a key outside the table maps to 0.
	got := ComputeIndices(Answers{"Q07": "X"}, bank)
	if got.OwnerDependency != 0 {
		t.Errorf("OwnerDependency = %d, want 0", got.OwnerDependency)
	}
}
