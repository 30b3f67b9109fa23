package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var tierFlag string

	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Download, transcribe, summarize, and index a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			override, err := parseTierFlag(tierFlag)
			if err != nil {
				return err
			}

			p, cleanup, err := ctx.buildPipeline(newProgressReporter())
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := p.Run(cmd.Context(), args[0], override)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result.FromCache {
				fmt.Fprintf(out, "Reused cached artifacts for %s\n", result.ContentKey)
			} else {
				fmt.Fprintf(out, "Processed %s\n", result.ContentKey)
			}
			fmt.Fprintf(out, "Transcription tier: %s\n", result.TranscriptionTier)
			fmt.Fprintf(out, "Answer tier: %s\n", result.AnswerTier)
			fmt.Fprintf(out, "Summary: %s\n", result.Summary)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tierFlag, "tier", "t", "", "Answer model tier override (cheap or premium)")
	return cmd
}
