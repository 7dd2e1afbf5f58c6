package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/diffnav/internal/config"
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/flags"
)

var showCmd = &cobra.Command{
	Use:   "show [target] [base]",
	Short: "Print the diff as JSON",
	Long: `Load the diff the viewer would show and print it as JSON: files, chunks,
typed lines with old and new line numbers, and totals.

With --split every chunk also carries its side-by-side rows.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("split", false, "include side-by-side rows")
	showCmd.Flags().Bool("compact", false, "print without indentation")
}

// splitFile is a file with its aligned rows, one slice per chunk.
type splitFile struct {
	diff.FileDiff
	Rows [][]diff.Row `json:"rows"`
}

type splitResult struct {
	*diff.Result
	Files []splitFile `json:"files"`
}

func runShow(cmd *cobra.Command, args []string) error {
	cleanupLog, err := initLogging("diffnav-show")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := validateConfig(); err != nil {
		return err
	}

	featureFlags := flags.WithDefaults(cfg.Flags)
	s, err := newSession(cmd.Context(), args, featureFlags)
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.loader.Load(cmd.Context(), s.request)
	if err != nil {
		return err
	}

	split, _ := cmd.Flags().GetBool("split")
	compact, _ := cmd.Flags().GetBool("compact")
	if !split {
		return writeJSON(cmd.OutOrStdout(), res, compact)
	}
	return writeJSON(cmd.OutOrStdout(), withRows(res, featureFlags.Enabled(flags.FlagIntralineDiff)), compact)
}

func withRows(res *diff.Result, intraline bool) splitResult {
	out := splitResult{Result: res, Files: make([]splitFile, len(res.Files))}
	for i, f := range res.Files {
		rows := diff.AlignFile(f)
		if intraline {
			rows = diff.AlignFileIntraline(f)
		}
		out.Files[i] = splitFile{FileDiff: f, Rows: rows}
	}
	return out
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func validateConfig() error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
