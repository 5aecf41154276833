package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScenarioNotFoundError is returned when a scenario path doesn't exist.
type ScenarioNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *ScenarioNotFoundError) Error() string {
	return fmt.Sprintf("scenario path %q does not exist", e.Path)
}

// FindScenarios returns the scenario files at path: the file itself, or
// every .yaml and .yml file below a directory, sorted.
func FindScenarios(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ScenarioNotFoundError{Path: path}
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := strings.ToLower(filepath.Ext(p))
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ValidationResult summarizes a batch of scenario runs.
type ValidationResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure describes one failed scenario.
type ScenarioFailure struct {
	Scenario string   `json:"scenario"`
	Path     string   `json:"path"`
	Errors   []string `json:"errors"`
}

// RunAll loads and runs every scenario file. A file that fails to load or
// execute counts as a failure.
func RunAll(paths []string) *ValidationResult {
	vr := &ValidationResult{TotalScenarios: len(paths)}
	for _, path := range paths {
		name := filepath.Base(path)
		scenario, err := LoadScenario(path)
		if err != nil {
			vr.fail(name, path, err.Error())
			continue
		}
		name = scenario.Name

		result, err := Run(scenario)
		if err != nil {
			vr.fail(name, path, err.Error())
			continue
		}
		if !result.Pass {
			vr.fail(name, path, result.Errors...)
			continue
		}
		vr.Passed++
	}
	return vr
}

func (vr *ValidationResult) fail(name, path string, errs ...string) {
	vr.Failed++
	vr.Failures = append(vr.Failures, ScenarioFailure{Scenario: name, Path: path, Errors: errs})
}
