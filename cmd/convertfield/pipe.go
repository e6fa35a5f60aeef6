package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/csheth/convertfield/internal/convert"
	"github.com/csheth/convertfield/internal/source"
)

func newPipeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pipe",
		Short: "Convert stdin (or --file) once and stream the result to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve()
			if err != nil {
				return err
			}
			closeLog, err := setupLogging(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			path := opts.filePath
			if path == "" {
				path = source.StdinPath
			}
			text, err := source.Load(path, cmd.InOrStdin())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := convert.New(convert.Config{Endpoint: cfg.Endpoint})
			n, err := client.Convert(ctx, text, cmd.OutOrStdout())
			switch {
			case convert.IsAborted(err):
				log.Printf("[pipe] aborted after %d bytes", n)
				return fmt.Errorf("conversion cancelled after %d bytes", n)
			case err != nil:
				log.Printf("[pipe] failed after %d bytes: %v", n, err)
				return err
			}
			log.Printf("[pipe] converted %d bytes", n)
			return nil
		},
	}
}
