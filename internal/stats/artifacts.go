package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID        string `json:"run_id"`
	Generation   int    `json:"generation"`
	Selection    string `json:"selection"`
	Chromosomes  int    `json:"chromosomes"`
	Number       int    `json:"number"`
	PreserveBest bool   `json:"preserve_best"`
	Seed         int64  `json:"seed"`
}

// SelectedEntry is one row of selected.csv, in selection order.
type SelectedEntry struct {
	Position int     `json:"position"`
	Index    int     `json:"index"`
	ID       string  `json:"id"`
	Fitness  float64 `json:"fitness"`
}

type RunArtifacts struct {
	Config    RunConfig       `json:"config"`
	Selected  []SelectedEntry `json:"selected"`
	Counts    []TallyEntry    `json:"counts"`
	Summaries []Summary       `json:"summaries"`
}

type RunIndexEntry struct {
	RunID        string `json:"run_id"`
	Generation   int    `json:"generation"`
	Number       int    `json:"number"`
	Selected     int    `json:"selected"`
	PreserveBest bool   `json:"preserve_best"`
	CreatedAtUTC string `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeSelectedCSV(filepath.Join(runDir, "selected.csv"), artifacts.Selected); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "counts.json"), artifacts.Counts); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "summaries.json"), artifacts.Summaries); err != nil {
		return "", err
	}
	return runDir, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}
	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func ReadSelected(baseDir, runID string) ([]SelectedEntry, bool, error) {
	f, err := os.Open(filepath.Join(baseDir, runID, "selected.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return []SelectedEntry{}, true, nil
	}

	out := make([]SelectedEntry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != 4 {
			return nil, false, fmt.Errorf("selected.csv row %d: expected 4 columns, got %d", i+1, len(row))
		}
		position, err := strconv.Atoi(row[0])
		if err != nil {
			return nil, false, fmt.Errorf("selected.csv row %d position: %w", i+1, err)
		}
		index, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, false, fmt.Errorf("selected.csv row %d index: %w", i+1, err)
		}
		fitness, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, false, fmt.Errorf("selected.csv row %d fitness: %w", i+1, err)
		}
		out = append(out, SelectedEntry{Position: position, Index: index, ID: row[2], Fitness: fitness})
	}
	return out, true, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns index entries, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func writeSelectedCSV(path string, selected []SelectedEntry) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"position", "index", "id", "fitness"}); err != nil {
		return err
	}
	for _, entry := range selected {
		if err := w.Write([]string{
			strconv.Itoa(entry.Position),
			strconv.Itoa(entry.Index),
			entry.ID,
			strconv.FormatFloat(entry.Fitness, 'g', -1, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
