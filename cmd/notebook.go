package cmd

import (
	"github.com/spf13/cobra"

	"github.com/zjrosen/diffnav/internal/flags"
)

var notebookCmd = &cobra.Command{
	Use:   "notebook <path> [target] [base]",
	Short: "Print a cell-by-cell notebook diff as JSON",
	Long: `Read both versions of a Jupyter notebook for the given target and base
and compare them cell by cell: sources, outputs, execution counts and
metadata.`,
	Args: cobra.RangeArgs(1, 3),
	RunE: runNotebook,
}

func init() {
	rootCmd.AddCommand(notebookCmd)
	notebookCmd.Flags().Bool("compact", false, "print without indentation")
}

func runNotebook(cmd *cobra.Command, args []string) error {
	cleanupLog, err := initLogging("diffnav-notebook")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := validateConfig(); err != nil {
		return err
	}

	path := args[0]
	s, err := newSession(cmd.Context(), args[1:], flags.WithDefaults(cfg.Flags))
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.loader.LoadNotebook(cmd.Context(), s.request, path)
	if err != nil {
		return err
	}

	compact, _ := cmd.Flags().GetBool("compact")
	return writeJSON(cmd.OutOrStdout(), res, compact)
}
