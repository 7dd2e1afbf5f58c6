package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/flags"
)

var patchCmd = &cobra.Command{
	Use:   "patch [target] [base]",
	Short: "Print the diff as a unified patch",
	Long: `Load the diff and write it back out as a unified patch that git apply
accepts. Files that failed to load and binary files are skipped.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runPatch,
}

func init() {
	rootCmd.AddCommand(patchCmd)
}

func runPatch(cmd *cobra.Command, args []string) error {
	cleanupLog, err := initLogging("diffnav-patch")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := validateConfig(); err != nil {
		return err
	}

	s, err := newSession(cmd.Context(), args, flags.WithDefaults(cfg.Flags))
	if err != nil {
		return err
	}
	defer s.Close()

	res, err := s.loader.Load(cmd.Context(), s.request)
	if err != nil {
		return err
	}

	patch, err := diff.FormatPatches(res.Files)
	if err != nil {
		return fmt.Errorf("formatting patch: %w", err)
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), patch)
	return err
}
