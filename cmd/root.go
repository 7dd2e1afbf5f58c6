package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/diffnav/internal/config"
	"github.com/zjrosen/diffnav/internal/diff"
	"github.com/zjrosen/diffnav/internal/flags"
	"github.com/zjrosen/diffnav/internal/highlight"
	"github.com/zjrosen/diffnav/internal/log"
	"github.com/zjrosen/diffnav/internal/nav"
	"github.com/zjrosen/diffnav/internal/ui/diffview"
	"github.com/zjrosen/diffnav/internal/ui/styles"
	"github.com/zjrosen/diffnav/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in the view.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// localConfigPath is checked before the user config directory.
const localConfigPath = ".diffnav/config.yaml"

var (
	version    = "dev"
	cfgFile    string
	cfg        config.Config
	debugFlag  bool
	repoDir    string
	configUsed string
)

var rootCmd = &cobra.Command{
	Use:   "diffnav [target] [base]",
	Short: "A terminal viewer for git diffs",
	Long: `diffnav shows the changes of a commit, a range or the working tree and
lets you move through them line by line, change by change or file by file.

Targets:
  (none)     HEAD compared with its parent
  working    unstaged changes
  staged     staged changes
  .          all uncommitted changes
  <rev>      a commit compared with its parent, or with [base]`,
	Version:      version,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/diffnav/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also DIFFNAV_DEBUG=1)")
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "C", "",
		"run as if started in this directory")
	rootCmd.PersistentFlags().BoolP("ignore-whitespace", "w", false,
		"ignore whitespace changes")
	rootCmd.PersistentFlags().IntP("context", "U", 0,
		"lines of context around changes")

	rootCmd.Flags().Bool("split", false, "start in the two-column layout")
	rootCmd.Flags().Bool("no-watch", false, "disable live reload")
	rootCmd.Flags().String("comments", "", "JSON file of review comments to display")

	// Bind flags to viper
	_ = viper.BindPFlag("diff.ignore_whitespace", rootCmd.PersistentFlags().Lookup("ignore-whitespace"))
	_ = viper.BindPFlag("diff.context_lines", rootCmd.PersistentFlags().Lookup("context"))
}

func initConfig() {
	var err error
	cfg, configUsed, err = readConfig(viper.GetViper(), cfgFile)
	if err != nil {
		// Commands validate again and report; defaults keep help output working.
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// readConfig loads configuration into v and returns the path settings
// should be saved to.
//
// Config lookup order:
//  1. --config flag
//  2. .diffnav/config.yaml (current directory)
//  3. ~/.config/diffnav/config.yaml (user config), created on first run
func readConfig(v *viper.Viper, explicit string) (config.Config, string, error) {
	defaults := config.Defaults()
	v.SetDefault("diff.ignore_whitespace", defaults.Diff.IgnoreWhitespace)
	v.SetDefault("diff.context_lines", defaults.Diff.ContextLines)
	v.SetDefault("diff.concurrency", defaults.Diff.Concurrency)
	v.SetDefault("diff.cache_ttl", defaults.Diff.CacheTTL)
	v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("watch.ignore_globs", defaults.Watch.IgnoreGlobs)
	v.SetDefault("watch.use_gitignore", defaults.Watch.UseGitignore)
	v.SetDefault("ui.view_mode", defaults.UI.ViewMode)
	v.SetDefault("ui.syntax_theme", defaults.UI.SyntaxTheme)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	var userPath string
	switch {
	case explicit != "":
		v.SetConfigFile(explicit)
	case fileExists(localConfigPath):
		v.SetConfigFile(localConfigPath)
	default:
		home, err := os.UserHomeDir()
		if err == nil {
			dir := filepath.Join(home, ".config", "diffnav")
			userPath = filepath.Join(dir, "config.yaml")
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return defaults, explicit, fmt.Errorf("reading config: %w", err)
		}
		// No config file found anywhere: create the user default.
		if userPath != "" {
			if writeErr := config.WriteDefaultConfig(userPath); writeErr == nil {
				v.SetConfigFile(userPath)
				_ = v.ReadInConfig()
			}
		}
	}

	var out config.Config
	if err := v.Unmarshal(&out); err != nil {
		return defaults, v.ConfigFileUsed(), fmt.Errorf("decoding config: %w", err)
	}

	used := v.ConfigFileUsed()
	if used == "" {
		used = userPath
	}
	return out, used, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initLogging enables the debug log when requested by flag or environment.
func initLogging(prefix string) (func(), error) {
	if os.Getenv("DIFFNAV_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("DIFFNAV_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "diffnav starting", "debug", true, "logPath", logPath, "config", configUsed)
	return cleanup, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	cleanupLog, err := initLogging("diffnav")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := validateConfig(); err != nil {
		return err
	}
	if err := styles.ApplyTheme(styles.ThemeConfig{
		Preset: cfg.UI.Theme.Preset,
		Colors: cfg.UI.Theme.FlattenedColors(),
	}); err != nil {
		return fmt.Errorf("invalid theme: %w", err)
	}

	ctx := cmd.Context()
	featureFlags := flags.WithDefaults(cfg.Flags)
	s, err := newSession(ctx, args, featureFlags)
	if err != nil {
		return err
	}
	defer s.Close()

	viewMode := cfg.UI.ViewMode
	if split, _ := cmd.Flags().GetBool("split"); split {
		viewMode = diff.ViewSplit
	}

	var comments []nav.Comment
	if path, _ := cmd.Flags().GetString("comments"); path != "" {
		comments, err = readComments(path)
		if err != nil {
			return err
		}
	}

	var listener *watcher.Listener
	noWatch, _ := cmd.Flags().GetBool("no-watch")
	if cfg.Watch.Enabled && !noWatch {
		w, err := s.startWatcher(featureFlags.Enabled(flags.FlagGitignoreFilter))
		if err != nil {
			// Live reload is optional; the view still works without it.
			log.ErrorErr(log.CatWatcher, "Watcher unavailable", err)
		} else {
			defer func() { _ = w.Stop() }()
			listener = w.Register()
		}
	}

	model := diffview.New(diffview.Config{
		Context:     ctx,
		Loader:      s.loader,
		Request:     s.request,
		Listener:    listener,
		ConfigPath:  configUsed,
		ViewMode:    viewMode,
		Intraline:   featureFlags.Enabled(flags.FlagIntralineDiff),
		Highlighter: highlight.New(cfg.UI.SyntaxTheme),
		Comments:    comments,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
