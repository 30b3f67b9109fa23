package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tubeqa/internal/tiers"
	"tubeqa/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Process video URLs dropped as text files into a directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(dirFlag)
			if dir == "" {
				dir = cfg.Watch.Dir
			}
			if dir == "" {
				return fmt.Errorf("no watch directory configured (set [watch] dir or pass --dir)")
			}

			p, cleanup, err := ctx.buildPipeline(nil)
			if err != nil {
				return err
			}
			defer cleanup()

			handler := func(runCtx context.Context, url string) error {
				_, err := p.Run(runCtx, url, tiers.Answer(""))
				return err
			}
			w, err := watcher.New(dir, handler, logger)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Directory to watch for URL drop files")
	return cmd
}
