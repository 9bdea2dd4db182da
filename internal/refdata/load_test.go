package refdata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

const testStagesYAML = `stages:
  - name: Infancy
    description: d1
  - name: Go-Go
    description: d2
  - name: Adolescence
    description: d3
  - name: Prime
    description: d4
    risks: [r1]
    do: [a1]
    dont: [n1]
  - name: Stability
    description: d5
  - name: Aristocracy
    description: d6
  - name: Early Bureaucracy
    description: d7
  - name: Bureaucracy
    description: d8
`

const testDimensionsYAML = `dimensions:
  - id: decisions
    label: Decision making
`

func testQuestionsJSON(t *testing.T) string {
	t.Helper()
	out := "["
	for i := 1; i <= 12; i++ {
		if i > 1 {
			out += ","
		}
		id := "Q" + string(rune('0'+i/10)) + string(rune('0'+i%10))
		out += `{"id":"` + id + `","dimension":"decisions","text":"t",` +
			`"options":[{"key":"A","label":"a","scores":{"Infancy":1}},` +
			`{"key":"B","label":"b","scores":{"Prime":2}}]}`
	}
	return out + "]"
}

func TestLoad_ValidDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StagesFile, testStagesYAML)
	writeFile(t, dir, DimensionsFile, testDimensionsYAML)
	writeFile(t, dir, QuestionsFile, testQuestionsJSON(t))

	bank, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bank.Count() != 12 {
		t.Errorf("Count = %d, want 12", bank.Count())
	}
	if len(bank.Dimensions) != 1 || bank.Dimensions[0].ID != "decisions" {
		t.Errorf("Dimensions = %+v", bank.Dimensions)
	}
	prime := bank.StageByName(StagePrime)
	if prime == nil || len(prime.Risks) != 1 || prime.Risks[0] != "r1" {
		t.Errorf("Prime stage = %+v", prime)
	}
}

func TestLoad_ShippedData(t *testing.T) {
	bank, err := Load(filepath.Join("..", "..", "data"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if bank.Count() != 12 {
		t.Errorf("Count = %d, want 12", bank.Count())
	}
	for i := 0; i < NumStages; i++ {
		s := bank.StageAt(i)
		if s.Description == "" || len(s.Risks) == 0 || len(s.Do) == 0 || len(s.Dont) == 0 {
			t.Errorf("stage %s is missing descriptive payload", s.Name)
		}
	}
	for _, q := range bank.Questions {
		if len(q.Options) != 4 {
			t.Errorf("question %s has %d options, want 4", q.ID, len(q.Options))
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StagesFile, testStagesYAML)
	writeFile(t, dir, DimensionsFile, testDimensionsYAML)

	if _, err := Load(dir); err == nil {
		t.Fatal("Load succeeded with missing questions file, want error")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, StagesFile, testStagesYAML)
	writeFile(t, dir, DimensionsFile, testDimensionsYAML)
	writeFile(t, dir, QuestionsFile, "{not json")

	if _, err := Load(dir); err == nil {
		t.Fatal("Load succeeded with malformed questions file, want error")
	}
}
