package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tubeqa/internal/preflight"
)

func newPreflightCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preflight",
		Short: "Verify external tools and resources are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			checks := preflight.Run(cfg)
			rows := make([][]string, 0, len(checks))
			for _, check := range checks {
				status := "ok"
				detail := check.Detail
				if !check.OK() {
					status = "FAIL"
					detail = check.Err.Error()
				}
				rows = append(rows, []string{check.Name, status, detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				renderTable([]string{"CHECK", "STATUS", "DETAIL"}, rows))

			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}
}
