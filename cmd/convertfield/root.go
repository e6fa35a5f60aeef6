package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/csheth/convertfield/internal/config"
	"github.com/csheth/convertfield/internal/convert"
	"github.com/csheth/convertfield/internal/source"
	"github.com/csheth/convertfield/internal/tui"
)

type options struct {
	configPath  string
	endpoint    string
	filePath    string
	logFile     string
	noAltScreen bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "convertfield",
		Short: "Stream text through a local conversion service",
		Long: `convertfield opens a single text field. Type or load text, press Convert,
and the converted result streams back into the same field.

Examples:
  convertfield
  convertfield --file notes.txt
  convertfield --endpoint http://localhost:9090/api/convert
  echo "hello" | convertfield pipe`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runField(cmd, opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&opts.endpoint, "endpoint", "", "conversion endpoint URL (default "+convert.DefaultEndpoint+")")
	flags.StringVar(&opts.filePath, "file", "", "load the initial text from a file, a PDF, or - for stdin")
	flags.StringVar(&opts.logFile, "log-file", "", "append debug logs to this file")
	cmd.Flags().BoolVar(&opts.noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	cmd.AddCommand(newPipeCmd(opts))
	return cmd
}

// resolve merges the config file and environment with explicit flags.
func (o *options) resolve() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
	return cfg, cfg.Validate()
}

// setupLogging routes the std logger to the configured file. The TUI owns the
// terminal, so without a file the logs are dropped.
func setupLogging(cfg *config.Config) (func(), error) {
	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(cfg.LogFile, "convertfield")
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if cfg.Source != "" {
		log.Printf("[config] loaded %s", cfg.Source)
	}
	log.Printf("[config] endpoint=%s tick=%s", cfg.Endpoint, cfg.TickInterval)
	return func() { _ = f.Close() }, nil
}

func runField(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.resolve()
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	initial := ""
	if opts.filePath != "" {
		initial, err = source.Load(opts.filePath, cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	programOpts := []tea.ProgramOption{}
	if !opts.noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	if opts.filePath == source.StdinPath {
		// stdin was consumed by the loader; keyboard input comes from the TTY.
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		defer tty.Close()
		programOpts = append(programOpts, tea.WithInput(tty))
	}

	field := tui.New(tui.Config{
		Converter:    convert.New(convert.Config{Endpoint: cfg.Endpoint}),
		Endpoint:     cfg.Endpoint,
		TickInterval: cfg.TickInterval,
		InitialText:  initial,
	})
	final, err := tea.NewProgram(field, programOpts...).Run()
	if closer, ok := final.(interface{ Close() }); ok {
		closer.Close()
	}
	if err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
