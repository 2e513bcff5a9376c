package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	scriptsave "github.com/goliatone/go-scriptsave"
	"github.com/goliatone/go-scriptsave/pkg/inspect"
	"github.com/goliatone/go-scriptsave/pkg/registry"
)

type dumpOptions struct {
	where    string
	engine   string
	scripts  string
	maxSlots int
	noColor  bool
	asJSON   bool
	verbose  bool
}

type dumpOutput struct {
	StreamVersion int                     `json:"stream_version"`
	Slots         []scriptsave.SlotRecord `json:"slots"`
}

func newRootCmd() *cobra.Command {
	opts := &dumpOptions{}
	cmd := &cobra.Command{
		Use:   "slotdump <savegame>",
		Short: "Show the script slots stored in a savegame",
		Long: `Decode the script configuration chunk of a savegame without loading it.

With --scripts, slots are checked against the scripts installed in that
directory and rules may call installed(name[, version]) and latest(name).

Examples:
  slotdump game.sav
  slotdump game.sav --scripts ./scripts --where '!installed(configured.name, configured.version)'
  slotdump game.sav --engine cel --where 'occupied && data_size > 0'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.where, "where", "", "only show slots matching this rule")
	cmd.Flags().StringVar(&opts.engine, "engine", inspect.EngineExpr, "rule engine: expr, cel or js")
	cmd.Flags().StringVar(&opts.scripts, "scripts", "", "directory of installed scripts")
	cmd.Flags().IntVar(&opts.maxSlots, "max-slots", scriptsave.DefaultMaxSlots, "number of slots in the savegame")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print slots as JSON")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log rule evaluations")
	return cmd
}

func runDump(out, errOut io.Writer, path string, opts *dumpOptions) error {
	if opts.noColor {
		color.NoColor = true
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	version, slots, err := scriptsave.DecodeSlots(file, opts.maxSlots)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	var catalog scriptsave.Catalog
	if opts.scripts != "" {
		reg := registry.New()
		if _, err := registry.NewScanner().Scan(os.DirFS(opts.scripts), reg); err != nil {
			fmt.Fprintln(errOut, color.New(color.FgYellow).Sprintf("⚠ %v", err))
		}
		catalog = reg
	}

	if opts.where != "" {
		evaluator, err := inspect.NewEvaluator(opts.engine, inspect.WithFunctionRegistry(inspect.DefaultFunctions(catalog)))
		if err != nil {
			return err
		}
		logLevel := slog.LevelWarn
		if opts.verbose {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: logLevel}))
		slots, err = inspect.Filter(slots, evaluator, opts.where,
			inspect.WithEvaluatorLogger(inspect.NewSlogEvaluatorLogger(logger)),
			inspect.WithMetadata(map[string]any{"path": path, "stream_version": int(version)}),
		)
		if err != nil {
			return err
		}
	}

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(dumpOutput{StreamVersion: int(version), Slots: slots})
	}

	fmt.Fprintf(out, "%s %s (stream version %d)\n", color.New(color.Bold).Sprint("savegame"), path, version)
	displaySlots(out, slots, catalog)
	return nil
}

func displaySlots(out io.Writer, slots []scriptsave.SlotRecord, catalog scriptsave.Catalog) {
	if len(slots) == 0 {
		fmt.Fprintln(out, color.New(color.FgHiBlack).Sprint("no matching slots"))
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SLOT\tCONFIGURED\tSETTINGS\tRUNNING\tDATA\tSTATUS")
	for _, slot := range slots {
		running := "-"
		if slot.Running != nil {
			running = slot.Running.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
			slot.Slot,
			slot.Configured.String(),
			orDash(slot.Settings),
			running,
			len(slot.RunningData),
			statusLabel(slot, catalog),
		)
	}
	w.Flush()
}

func statusLabel(slot scriptsave.SlotRecord, catalog scriptsave.Catalog) string {
	if catalog == nil {
		return color.New(color.FgHiBlack).Sprint("unchecked")
	}
	res := scriptsave.ResolveScript(catalog, scriptsave.FallbackRequest{
		Name:        slot.Configured.Name,
		Version:     slot.Configured.Version,
		Random:      slot.Configured.IsRandom,
		AllowRandom: true,
		Pass:        scriptsave.PassConfigured,
	})
	switch res.Outcome {
	case scriptsave.OutcomeExact:
		return color.New(color.FgHiGreen).Sprint("✓ installed")
	case scriptsave.OutcomeRandom:
		return color.New(color.FgCyan).Sprint("random")
	case scriptsave.OutcomeLatest:
		return color.New(color.FgYellow).Sprintf("⚠ becomes %s", res.Identity)
	default:
		return color.New(color.FgRed).Sprint("✗ " + res.Outcome.String())
	}
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
