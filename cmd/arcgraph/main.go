package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/arcgraph/arcgraph/internal/output"
	"github.com/arcgraph/arcgraph/internal/progress"
	"github.com/arcgraph/arcgraph/pkg/analysis"
	"github.com/arcgraph/arcgraph/pkg/config"
	"github.com/arcgraph/arcgraph/pkg/models"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "arcgraph",
		Usage:   "Codebase architecture analysis",
		Version: version,
		Description: `Arcgraph extracts the structural elements of a codebase, resolves them
into a typed dependency graph, and detects service boundaries with
cohesion, coupling, and complexity scores.

Supports: Go, Python, JavaScript, TypeScript, TSX, Ruby, Java, Rust`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"ARCGRAPH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, markdown, toon",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress progress output",
			},
			&cli.IntFlag{
				Name:  "budget",
				Usage: "Wall-clock extraction budget in seconds (0 = none)",
			},
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			boundariesCmd(),
			metricsCmd(),
			cyclesCmd(),
			elementsCmd(),
			initCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func rootPath(c *cli.Context) (string, error) {
	path := "."
	if c.Args().Len() > 0 {
		path = c.Args().First()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", path, err)
	}
	return abs, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrDefault()
	}
	if err != nil {
		return nil, err
	}
	if budget := c.Int("budget"); budget > 0 {
		cfg.Analysis.BudgetSeconds = budget
	}
	return cfg, nil
}

// runAnalysis runs a full analysis for the command's path, wiring Ctrl+C to
// cancellation while extraction is in flight. The loaded config is returned
// so commands can read thresholds without loading it twice.
func runAnalysis(c *cli.Context) (*models.AnalysisResult, *config.Config, error) {
	root, err := rootPath(c)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	analyzer, err := analysis.New(cfg)
	if err != nil {
		return nil, nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewQuiet("Analyzing...")
	if !c.Bool("quiet") {
		tracker = progress.NewSpinner("Analyzing...")
	}
	result, err := analyzer.RunFull(ctx, root, tracker.Tick)
	if err != nil {
		tracker.FinishError(err)
		return nil, nil, err
	}
	tracker.FinishSuccess()
	return result, cfg, nil
}

func newFormatter(c *cli.Context) (*output.Formatter, error) {
	return output.NewFormatter(output.ParseFormat(c.String("format")), c.String("output"), true)
}

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"scan"},
		Usage:     "Analyze a source tree and report the full result",
		ArgsUsage: "[path]",
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	start := time.Now()
	result, _, err := runAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.Summary{Result: result, Elapsed: time.Since(start)})
}

func boundariesCmd() *cli.Command {
	return &cli.Command{
		Name:      "boundaries",
		Aliases:   []string{"bounds"},
		Usage:     "Detect service boundaries and score them",
		ArgsUsage: "[path]",
		Action:    runBoundariesCmd,
	}
}

func runBoundariesCmd(c *cli.Context) error {
	result, cfg, err := runAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	if len(result.Boundaries) == 0 && formatter.Format() == output.FormatText {
		formatter.Info("No service boundaries detected")
		return nil
	}

	var rows [][]string
	for _, b := range result.Boundaries {
		coupling := fmt.Sprintf("%.3f", b.Coupling)
		if formatter.Colored() {
			coupling = output.CouplingColor(b.Coupling, cfg.Boundary.CouplingWarn, coupling)
		}
		rows = append(rows, []string{
			b.Name,
			string(b.Type),
			fmt.Sprintf("%d", len(b.Elements)),
			fmt.Sprintf("%.3f", b.Cohesion),
			coupling,
			fmt.Sprintf("%.1f", b.Complexity),
			fmt.Sprintf("%d", len(b.Dependencies)),
		})
	}

	table := output.NewTable(
		"Service Boundaries",
		[]string{"Name", "Type", "Elements", "Cohesion", "Coupling", "Complexity", "Deps"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(result.Boundaries)), "", "", "", "", "", ""},
		result.Boundaries,
	)
	return formatter.Output(table)
}

func metricsCmd() *cli.Command {
	return &cli.Command{
		Name:      "metrics",
		Usage:     "Report per-element coupling, instability, and impact",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "top",
				Value: 20,
				Usage: "Show top N elements by impact",
			},
		},
		Action: runMetricsCmd,
	}
}

func runMetricsCmd(c *cli.Context) error {
	result, _, err := runAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ranked := analysis.TopImpact(result, c.Int("top"))

	var rows [][]string
	for _, em := range ranked {
		rows = append(rows, []string{
			em.Element.QualifiedName(),
			string(em.Element.Kind),
			fmt.Sprintf("%d", em.Metrics.Afferent),
			fmt.Sprintf("%d", em.Metrics.Efferent),
			fmt.Sprintf("%.3f", em.Metrics.Instability),
			fmt.Sprintf("%.3f", em.Metrics.Impact),
		})
	}

	table := output.NewTable(
		fmt.Sprintf("Element Metrics (Top %d by Impact)", c.Int("top")),
		[]string{"Element", "Kind", "Afferent", "Efferent", "Instability", "Impact"},
		rows,
		nil,
		ranked,
	)
	return formatter.Output(table)
}

func cyclesCmd() *cli.Command {
	return &cli.Command{
		Name:      "cycles",
		Usage:     "List circular dependency groups",
		ArgsUsage: "[path]",
		Action:    runCyclesCmd,
	}
}

func runCyclesCmd(c *cli.Context) error {
	result, _, err := runAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.CycleList{Result: result})
}

func elementsCmd() *cli.Command {
	return &cli.Command{
		Name:      "elements",
		Aliases:   []string{"els"},
		Usage:     "List extracted elements",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Usage: "Filter by element kind (class, function, ...)",
			},
			&cli.StringFlag{
				Name:  "language",
				Usage: "Filter by language",
			},
		},
		Action: runElementsCmd,
	}
}

func runElementsCmd(c *cli.Context) error {
	result, _, err := runAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	kind := c.String("kind")
	lang := c.String("language")

	var filtered []models.Element
	for _, el := range result.Elements {
		if el.External() {
			continue
		}
		if kind != "" && string(el.Kind) != kind {
			continue
		}
		if lang != "" && el.Language != lang {
			continue
		}
		filtered = append(filtered, el)
	}

	if len(filtered) == 0 && formatter.Format() == output.FormatText {
		formatter.Warning("No elements matched the filters")
		return nil
	}

	var rows [][]string
	for _, el := range filtered {
		rows = append(rows, []string{
			el.QualifiedName(),
			string(el.Kind),
			el.Language,
			fmt.Sprintf("%s:%d", el.File, el.StartLine),
			el.Visibility,
		})
	}

	table := output.NewTable(
		"Elements",
		[]string{"Name", "Kind", "Language", "Location", "Visibility"},
		rows,
		[]string{fmt.Sprintf("Total: %d", len(filtered)), "", "", "", ""},
		filtered,
	)
	return formatter.Output(table)
}
