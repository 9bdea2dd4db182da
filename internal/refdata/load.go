package refdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// File names expected under the data directory.
const (
	QuestionsFile  = "questions.json"
	StagesFile     = "stages.yaml"
	DimensionsFile = "dimensions.yaml"
)

type stagesDoc struct {
	Stages []Stage `yaml:"stages"`
}

type dimensionsDoc struct {
	Dimensions []Dimension `yaml:"dimensions"`
}

// Load reads the three reference-data files from dataDir and returns a
// validated Bank. It is called once at startup; any inconsistency in the
// data is an error here, never later.
func Load(dataDir string) (*Bank, error) {
	var sd stagesDoc
	if err := readYAML(filepath.Join(dataDir, StagesFile), &sd); err != nil {
		return nil, err
	}

	var dd dimensionsDoc
	if err := readYAML(filepath.Join(dataDir, DimensionsFile), &dd); err != nil {
		return nil, err
	}

	qPath := filepath.Join(dataDir, QuestionsFile)
	qData, err := os.ReadFile(qPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", qPath, err)
	}
	var questions []Question
	if err := json.Unmarshal(qData, &questions); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", qPath, err)
	}

	bank, err := NewBank(questions, sd.Stages, dd.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("validating reference data: %w", err)
	}
	return bank, nil
}

func readYAML(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
