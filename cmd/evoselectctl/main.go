package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"evoselect/internal/phase"
	"evoselect/internal/stats"
	"evoselect/internal/storage"
	api "evoselect/pkg/evoselect"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "select":
		return runSelect(ctx, args[1:])
	case "compare":
		return runCompare(ctx, args[1:])
	case "notes":
		return runNotes(ctx, args[1:])
	case "generation":
		return runGeneration(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

type storeFlags struct {
	kind     *string
	dbPath   *string
	logLevel *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:     fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:   fs.String("db-path", "evoselect.db", "sqlite database path"),
		logLevel: fs.String("log-level", "warn", "log level: debug|info|warn|error"),
	}
}

func (f storeFlags) client(artifactsDir string) (*api.Client, error) {
	logger, err := newLogger(*f.logLevel)
	if err != nil {
		return nil, err
	}
	return api.New(api.Options{
		StoreKind:    *f.kind,
		DBPath:       *f.dbPath,
		ArtifactsDir: artifactsDir,
		Logger:       logger,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "initialized store=%s\n", *sf.kind)
	return nil
}

func runSelect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("select", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional select config JSON path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	generation := fs.Int("generation", 0, "generation number")
	fitness := fs.String("fitness", "", "comma-separated fitness values in chromosome order")
	number := fs.Int("n", 0, "number of parents to select")
	preserveBest := fs.Bool("preserve-best", false, "append the best chromosome when the walk misses it")
	seed := fs.Int64("seed", 0, "rng seed (0 draws from the process-wide source)")
	artifactsDir := fs.String("artifacts-dir", "", "write run artifacts under this directory")
	jsonOut := fs.Bool("json", false, "emit summary as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var req api.SelectRequest
	if *configPath != "" {
		loaded, err := loadSelectRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	}

	set := map[string]bool{}
	if *configPath == "" {
		for _, name := range []string{"run-id", "generation", "fitness", "n", "preserve-best", "seed"} {
			set[name] = true
		}
	} else {
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	}
	if err := overrideFromFlags(&req, set, map[string]any{
		"run-id":        *runID,
		"generation":    *generation,
		"fitness":       *fitness,
		"n":             *number,
		"preserve-best": *preserveBest,
		"seed":          *seed,
	}); err != nil {
		return err
	}

	client, err := sf.client(*artifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Select(ctx, req)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, summary)
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle(fmt.Sprintf("Selection run=%s generation=%d", summary.RunID, summary.Generation))
	t.AppendHeader(table.Row{"ID", "Index", "Fitness", "Count", "Expected", "Elite"})
	for _, item := range summary.Counts {
		expected := strconv.Itoa(item.Min)
		if item.Max != item.Min {
			expected = fmt.Sprintf("%d-%d", item.Min, item.Max)
		}
		elite := ""
		if item.Elite {
			elite = "+1"
		}
		t.AppendRow(table.Row{item.ID, item.Index, fmt.Sprintf("%.6g", item.Fitness), item.Count, expected, elite})
	}
	t.AppendFooter(table.Row{"", "", "", len(summary.Selected), summary.Requested, ""})
	t.Render()

	t = table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle("Fitness")
	t.AppendHeader(table.Row{"Phase", "Count", "Distinct", "Mean", "StdDev", "Min", "Max"})
	for _, s := range []struct {
		name    string
		summary stats.Summary
	}{
		{"beginning", summary.Population},
		{"selected_parents", summary.Parents},
	} {
		t.AppendRow(table.Row{
			s.name,
			s.summary.Count,
			s.summary.Distinct,
			fmt.Sprintf("%.4f", s.summary.Mean),
			fmt.Sprintf("%.4f", s.summary.StdDev),
			fmt.Sprintf("%.4f", s.summary.Min),
			fmt.Sprintf("%.4f", s.summary.Max),
		})
	}
	t.Render()

	if summary.ArtifactsDir != "" {
		fmt.Fprintf(stdout, "artifacts=%s\n", summary.ArtifactsDir)
	}
	return nil
}

func runCompare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	fitness := fs.String("fitness", "", "comma-separated fitness values in chromosome order")
	number := fs.Int("n", 0, "number of parents per trial")
	trials := fs.Int("trials", 1000, "number of trials")
	seed := fs.Int64("seed", 1, "rng seed")
	jsonOut := fs.Bool("json", false, "emit comparison as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	values, err := parseFitness(*fitness)
	if err != nil {
		return err
	}
	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Compare(ctx, api.CompareRequest{
		Fitness: values,
		Number:  *number,
		Trials:  *trials,
		Seed:    *seed,
	})
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, summary)
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle(fmt.Sprintf("Selection counts over %d trials", summary.Trials))
	t.AppendHeader(table.Row{"Index", "Fitness", "Expected", "SUS", "Roulette"})
	for _, row := range summary.Rows {
		t.AppendRow(table.Row{
			row.Index,
			fmt.Sprintf("%.6g", row.Fitness),
			fmt.Sprintf("%.3f", row.Expected),
			fmt.Sprintf("%d-%d", row.SUSMin, row.SUSMax),
			fmt.Sprintf("%d-%d", row.RouletteMin, row.RouletteMax),
		})
	}
	t.AppendFooter(table.Row{"", "", "outside bounds", summary.SUSViolations, summary.RouletteViolations})
	t.Render()
	return nil
}

func runNotes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notes", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	phaseFilter := fs.String("phase", "", "only list notes at these phases, \"|\"-joined (e.g. beginning|selected_parents)")
	jsonOut := fs.Bool("json", false, "emit notes as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	filter, err := phase.Parse(*phaseFilter)
	if err != nil {
		return err
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	notes, err := client.Notes(ctx, *runID)
	if err != nil {
		return err
	}
	if filter != 0 {
		kept := notes[:0]
		for _, note := range notes {
			p, err := phase.Parse(note.Phase)
			if err != nil {
				return err
			}
			if filter.Has(p) {
				kept = append(kept, note)
			}
		}
		notes = kept
	}
	if *jsonOut {
		return writeJSON(stdout, notes)
	}
	if len(notes) == 0 {
		fmt.Fprintln(stdout, "no notes found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.AppendHeader(table.Row{"Generation", "Phase", "Chromosomes", "Created"})
	for _, note := range notes {
		t.AppendRow(table.Row{note.Generation, note.Phase, len(note.ChromosomeIDs), note.CreatedAt.Format("2006-01-02T15:04:05Z07:00")})
	}
	t.Render()
	return nil
}

func runGeneration(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("generation", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	number := fs.Int("generation", 0, "generation number")
	jsonOut := fs.Bool("json", false, "emit generation as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.client("")
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.Generation(ctx, *runID, *number)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, record)
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle(fmt.Sprintf("Generation %d of run %s", record.Number, record.RunID))
	t.AppendHeader(table.Row{"Index", "ID", "Fitness", "Best"})
	for i, c := range record.Chromosomes {
		fitness := "-"
		if c.Fitness != nil {
			fitness = fmt.Sprintf("%.6g", *c.Fitness)
		}
		best := ""
		if c.ID == record.BestID {
			best = "*"
		}
		t.AppendRow(table.Row{i, c.ID, fitness, best})
	}
	t.Render()
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	artifactsDir := fs.String("artifacts-dir", "runs", "artifacts directory holding the run index")
	limit := fs.Int("limit", 20, "max runs to list")
	runID := fs.String("run-id", "", "show the selection of one run instead of the index")
	jsonOut := fs.Bool("json", false, "emit runs as JSON")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := sf.client(*artifactsDir)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if *runID != "" {
		return showRun(ctx, client, *runID, *jsonOut)
	}

	entries, err := client.Runs(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		return writeJSON(stdout, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.AppendHeader(table.Row{"Run", "Created", "Generation", "Requested", "Selected", "Preserve Best"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.RunID, e.CreatedAtUTC, e.Generation, e.Number, e.Selected, e.PreserveBest})
	}
	t.Render()
	return nil
}

func showRun(ctx context.Context, client *api.Client, runID string, jsonOut bool) error {
	detail, err := client.Run(ctx, runID)
	if err != nil {
		return err
	}
	if jsonOut {
		return writeJSON(stdout, detail)
	}

	cfg := detail.Config
	t := table.NewWriter()
	t.SetOutputMirror(stdout)
	t.SetTitle(fmt.Sprintf("Run %s generation=%d selection=%s n=%d preserve_best=%t seed=%d",
		cfg.RunID, cfg.Generation, cfg.Selection, cfg.Number, cfg.PreserveBest, cfg.Seed))
	t.AppendHeader(table.Row{"Position", "Index", "ID", "Fitness"})
	for _, e := range detail.Selected {
		t.AppendRow(table.Row{e.Position, e.Index, e.ID, fmt.Sprintf("%.6g", e.Fitness)})
	}
	t.Render()
	return nil
}

func parseFitness(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("fitness values are required")
	}
	parts := strings.Split(raw, ",")
	values := make([]float64, 0, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("fitness value %d: %w", i, err)
		}
		values = append(values, v)
	}
	return values, nil
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: evoselectctl <init|select|compare|notes|generation|runs> [flags]", msg)
}
