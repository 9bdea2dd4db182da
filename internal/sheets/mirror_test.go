package sheets

import (
	"testing"
	"time"
)

func TestNewRow(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orig := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = orig }()

	row := newRow(Profile{
		UserID:   42,
		Username: "ivan",
		Handle:   "@ivan",
		Link:     "https://t.me/ivan",
		FullName: "Ivan I",
		Status:   "not_started",
	})

	if len(row) != numColumns {
		t.Fatalf("row has %d cells, want %d", len(row), numColumns)
	}
	if row[colTimestamp] != "2025-06-01T12:00:00Z" {
		t.Errorf("timestamp = %v", row[colTimestamp])
	}
	if row[colUserID] != "42" {
		t.Errorf("user id = %v, want \"42\"", row[colUserID])
	}
	if row[colHandle] != "@ivan" || row[colStatus] != "not_started" {
		t.Errorf("identity cells = (%v, %v)", row[colHandle], row[colStatus])
	}
	if row[colStage] != "" {
		t.Errorf("stage = %v, want empty before finalization", row[colStage])
	}
}

func TestApplyUpdate_PartialMerge(t *testing.T) {
	row := newRow(Profile{UserID: 1, Username: "ivan", Status: "in_progress"})

	stage := "Prime"
	confidence := 85
	optIn := true
	applyUpdate(row, RowUpdate{
		Stage:      &stage,
		Confidence: &confidence,
		OfferOptIn: &optIn,
	})

	if row[colStage] != "Prime" {
		t.Errorf("stage = %v", row[colStage])
	}
	if row[colConfidence] != "85" {
		t.Errorf("confidence = %v, want \"85\"", row[colConfidence])
	}
	if row[colOfferOptIn] != "true" {
		t.Errorf("opt-in = %v, want \"true\"", row[colOfferOptIn])
	}
	// Nil fields keep their previous values.
	if row[colUsername] != "ivan" {
		t.Errorf("username = %v, want untouched ivan", row[colUsername])
	}
	if row[colStatus] != "in_progress" {
		t.Errorf("status = %v, want untouched in_progress", row[colStatus])
	}
}

func TestApplyUpdate_EmptyUpdateIsNoop(t *testing.T) {
	row := newRow(Profile{UserID: 1, Username: "ivan"})
	before := make([]interface{}, len(row))
	copy(before, row)

	applyUpdate(row, RowUpdate{})

	for i := range row {
		if row[i] != before[i] {
			t.Errorf("cell %d changed: %v -> %v", i, before[i], row[i])
		}
	}
}

func TestNormalizeRow(t *testing.T) {
	short := []interface{}{"ts", "42", "ivan"}
	full := normalizeRow(short)
	if len(full) != numColumns {
		t.Fatalf("normalized length = %d, want %d", len(full), numColumns)
	}
	if full[colUsername] != "ivan" {
		t.Errorf("username = %v", full[colUsername])
	}
	if full[numColumns-1] != "" {
		t.Errorf("padding cell = %v, want empty", full[numColumns-1])
	}

	long := make([]interface{}, numColumns+3)
	for i := range long {
		long[i] = "x"
	}
	if got := normalizeRow(long); len(got) != numColumns {
		t.Errorf("oversized row normalized to %d cells, want %d", len(got), numColumns)
	}
}

func TestRowFromRange(t *testing.T) {
	cases := []struct {
		ref     string
		want    int
		wantErr bool
	}{
		{"Sheet1!A5:X5", 5, false},
		{"A12:X12", 12, false},
		{"'My Sheet'!A1:X1", 1, false},
		{"Sheet1!A:X", 0, true},
	}
	for _, tc := range cases {
		got, err := rowFromRange(tc.ref)
		if tc.wantErr {
			if err == nil {
				t.Errorf("rowFromRange(%q) succeeded with %d, want error", tc.ref, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("rowFromRange(%q): %v", tc.ref, err)
			continue
		}
		if got != tc.want {
			t.Errorf("rowFromRange(%q) = %d, want %d", tc.ref, got, tc.want)
		}
	}
}
