package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/recolor/internal/config"
	"github.com/zjrosen/recolor/internal/highlight"
	"github.com/zjrosen/recolor/internal/log"
	"github.com/zjrosen/recolor/internal/style"
)

var version = "dev"

// options holds the state shared by one invocation of the command tree.
type options struct {
	cfgFile    string
	debug      bool
	cfg        config.Config
	cfgUsed    string
	logCleanup func()
}

// newRootCmd builds the recolor command tree around opts.
func newRootCmd(opts *options) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recolor [flags] REGEX [NAME=STYLE ...]",
		Short: "Color regex capture groups in a stream of lines",
		Long: `recolor reads lines from standard input, matches each line against REGEX
and writes it back with every capture group drawn in its own style.

Named groups take the style given by a NAME=STYLE argument (or the config
file); every other group gets a palette color picked by its position in the
pattern. Nested groups draw the inner style over the inner text only.

STYLE is a comma-separated list of tokens applied in order:
  colors      black red green yellow blue magenta cyan white
  bright      bright_black bright_red ... bright_white
  truecolor   #RRGGBB
  attributes  bold dim italic underline blink hidden strikethrough

Run 'recolor styles' for the full list with previews.

Examples:
  # Color the log level and timestamp
  tail -f app.log | recolor '^(?P<ts>\S+) (?P<level>[A-Z]+)' level=bold,red ts=dim

  # Default palette colors for unnamed groups
  ip addr | recolor '(\d+\.\d+\.\d+\.\d+)/(\d+)'

  # Look-around needs the backtracking engine
  env | recolor -e backtrack '(\w+)(?==)'

  # A pattern spelled like a subcommand goes after --
  recolor -- styles < words.txt`,
		Version:           version,
		Args:              cobra.MinimumNArgs(1),
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: opts.initConfig,
		RunE:              opts.runFilter,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "",
		"config file (default: ./"+config.LocalConfigFile+" or ~/.config/recolor/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false,
		"write debug log to $RECOLOR_LOG (default: recolor-debug.log), filtered by $RECOLOR_LOG_LEVEL")
	rootCmd.PersistentFlags().String("color", config.ColorAlways,
		"when to emit color: always, auto, or never")
	rootCmd.Flags().StringP("engine", "e", string(highlight.EngineRE2),
		"regex engine: re2 or backtrack")
	rootCmd.Flags().Duration("match-timeout", 0,
		"per-match time limit for the backtrack engine (0 = none)")

	rootCmd.AddCommand(newStylesCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

// initConfig loads configuration from defaults, the config file, RECOLOR_*
// environment variables, and flags, in increasing precedence.
func (o *options) initConfig(cmd *cobra.Command, _ []string) error {
	if err := o.initLogging(); err != nil {
		return err
	}

	v := viper.New()
	defaults := config.Defaults()
	v.SetDefault("color", defaults.Color)
	v.SetDefault("engine", defaults.Engine)
	v.SetDefault("match_timeout", defaults.MatchTimeout)

	v.SetEnvPrefix("RECOLOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if f := cmd.Flags().Lookup("color"); f != nil {
		_ = v.BindPFlag("color", f)
	}
	if f := cmd.Flags().Lookup("engine"); f != nil {
		_ = v.BindPFlag("engine", f)
	}
	if f := cmd.Flags().Lookup("match-timeout"); f != nil {
		_ = v.BindPFlag("match_timeout", f)
	}

	// Config lookup order:
	// 1. --config flag (must exist)
	// 2. ./.recolor.yaml
	// 3. ~/.config/recolor/config.yaml
	path := o.cfgFile
	required := path != ""
	if path == "" {
		if _, err := os.Stat(config.LocalConfigFile); err == nil {
			path = config.LocalConfigFile
		} else {
			path = config.DefaultConfigPath()
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("reading config %s: %w", path, err)
			}
			log.Debug(log.CatConfig, "No config file", "path", path)
		} else {
			o.cfgUsed = v.ConfigFileUsed()
			log.Info(log.CatConfig, "Loaded config", "path", o.cfgUsed)
		}
	}

	var cfg config.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	o.cfg = cfg
	return nil
}

func (o *options) initLogging() error {
	// Initialize logging if debug mode enabled (via flag or env var)
	if !o.debug && os.Getenv("RECOLOR_DEBUG") == "" {
		return nil
	}
	logPath := os.Getenv("RECOLOR_LOG")
	if logPath == "" {
		logPath = "recolor-debug.log"
	}

	level := log.LevelDebug
	if name := os.Getenv("RECOLOR_LOG_LEVEL"); name != "" {
		var err error
		if level, err = log.ParseLevel(name); err != nil {
			return fmt.Errorf("RECOLOR_LOG_LEVEL: %w", err)
		}
	}

	cleanup, err := log.Init(logPath)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	o.logCleanup = cleanup
	log.SetMinLevel(level)
	log.Info(log.CatConfig, "recolor starting", "version", version, "logPath", logPath)
	return nil
}

func (o *options) close() {
	if o.logCleanup != nil {
		o.logCleanup()
		o.logCleanup = nil
	}
}

// runFilter builds the highlighter and streams stdin to stdout. Every
// configuration error is reported before the first byte of input is read.
func (o *options) runFilter(cmd *cobra.Command, args []string) error {
	if err := config.Validate(o.cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	matcher, err := highlight.Compile(args[0], o.cfg.MatcherOptions())
	if err != nil {
		return err
	}

	fileStyles, err := o.cfg.StyleTable()
	if err != nil {
		return err
	}
	argStyles, err := style.ParseAssignments(args[1:])
	if err != nil {
		return err
	}
	palette, err := o.cfg.PaletteStyles()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	profile := o.cfg.ColorProfile(out)
	log.Debug(log.CatConfig, "Starting filter", "pattern", args[0], "groups", matcher.NumGroups(),
		"styles", len(fileStyles)+len(argStyles), "profile", profile)

	h := highlight.New(
		highlight.NewExtractor(matcher, fileStyles.Merge(argStyles), palette),
		highlight.NewRenderer(profile),
	)
	if err := h.Run(cmd.InOrStdin(), out); err != nil {
		log.ErrorErr(log.CatRender, "Filter aborted", err)
		return err
	}
	return nil
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	opts := &options{}
	defer opts.close()
	return execute(newRootCmd(opts), os.Stderr)
}

func execute(rootCmd *cobra.Command, stderr io.Writer) error {
	rootCmd.Version = version
	err := rootCmd.Execute()
	if err != nil {
		PrintError(stderr, err)
	}
	return err
}

// PrintError writes err as a single "Error: ..." line.
func PrintError(w io.Writer, err error) {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")).Render("Error:")
	_, _ = fmt.Fprintf(w, "%s %v\n", label, err)
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
}
