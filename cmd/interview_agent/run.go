package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-conductor/internal/engine"
	"github.com/jonathan/interview-conductor/internal/llm"
	"github.com/jonathan/interview-conductor/internal/observability"
	"github.com/jonathan/interview-conductor/internal/store"
	"github.com/jonathan/interview-conductor/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run an interview interactively on the console",
	Long: `Runs a full interview session over stdin/stdout: the agent prints questions,
you type answers, and the final evaluation is printed when the session ends.

Without GEMINI_API_KEY the agent runs entirely on its deterministic question
bank and heuristics, which is useful for trying out the flow offline.`,
	RunE: runConsole,
}

var (
	runPositionPath string
	runVariant      string
	runSQLitePath   string
	runAPIKey       string
	runVerbose      bool
)

func init() {
	runCommand.Flags().StringVarP(&runPositionPath, "position", "p", "", "Path to position JSON file (required)")
	runCommand.Flags().StringVar(&runVariant, "variant", "classic", "Agent variant (classic or realtime_screening)")
	runCommand.Flags().StringVar(&runSQLitePath, "sqlite", "", "SQLite file for session snapshots (optional)")
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API key (optional, defaults to GEMINI_API_KEY env var)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print coverage after every answer")
	_ = runCommand.MarkFlagRequired("position")

	rootCmd.AddCommand(runCommand)
}

func runConsole(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	position, err := loadPosition(runPositionPath)
	if err != nil {
		return err
	}

	client, err := buildClient(ctx, runAPIKey)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	} else {
		fmt.Println("(no API key configured, running in deterministic fallback mode)")
	}

	recorder, closeStore, err := buildRecorder(ctx, runSQLitePath)
	if err != nil {
		return err
	}
	defer closeStore()

	e, err := engine.New("", position, engine.Options{
		Client:   client,
		Variant:  engine.VariantKind(runVariant),
		Recorder: recorder,
	})
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	fmt.Printf("\nInterviewer: %s\n", e.KickoffQuestion())

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		out, err := e.HandleCandidateTurn(ctx, text, types.SpeakerCandidate)
		if err != nil {
			return err
		}
		fmt.Printf("\nInterviewer: %s\n", out.Reply)
		if runVerbose {
			printer.PrintCoverage(e.CoverageSummary())
		}

		if out.Done {
			printer.PrintCoverage(e.CoverageSummary())
			return printFinal(printer, out.Final)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	// Input ended mid-interview; evaluate what we have.
	final, err := e.Finalize(ctx)
	if err != nil {
		return err
	}
	printer.PrintCoverage(e.CoverageSummary())
	return printFinal(printer, final)
}

func loadPosition(path string) (types.PositionRecord, error) {
	var position types.PositionRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return position, fmt.Errorf("failed to read position file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &position); err != nil {
		return position, fmt.Errorf("failed to parse position JSON: %w", err)
	}
	return position, nil
}

func buildClient(ctx context.Context, apiKey string) (llm.Client, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, nil
	}
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create reasoning client: %w", err)
	}
	return client, nil
}

func buildRecorder(ctx context.Context, sqlitePath string) (engine.Recorder, func(), error) {
	if sqlitePath == "" {
		writer := store.NewAsyncWriter(store.NewMemory(), 1)
		return writer, writer.Close, nil
	}
	db, err := store.OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot store: %w", err)
	}
	writer := store.NewAsyncWriter(db, 1)
	return writer, writer.Close, nil
}

func printFinal(printer *observability.Printer, final *types.FinalRecord) error {
	if final == nil {
		return nil
	}
	printer.PrintFinal(final)
	fmt.Printf("\nSummary: %s\n", final.Evaluation.Summary)

	encoded, err := json.MarshalIndent(final, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode final record: %w", err)
	}
	fmt.Printf("\n%s\n", encoded)
	return nil
}
