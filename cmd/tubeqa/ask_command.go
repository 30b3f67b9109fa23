package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCommand(ctx *commandContext) *cobra.Command {
	var tierFlag string

	cmd := &cobra.Command{
		Use:   "ask <url>",
		Short: "Process a video and answer questions about it interactively",
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
			sess := result.Session
			meta := sess.Metadata()
			fmt.Fprintf(out, "Title: %s\n", meta.Title)
			if meta.DurationMinutes > 0 {
				fmt.Fprintf(out, "Duration: %.1f minutes\n", meta.DurationMinutes)
			}
			fmt.Fprintf(out, "Description: %s\n", meta.Description)
			fmt.Fprintf(out, "Summary: %s\n\n", sess.Summary())
			fmt.Fprintln(out, "Ask questions about the video. Type \"exit\" to quit.")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					break
				}
				question := strings.TrimSpace(scanner.Text())
				if question == "" {
					continue
				}
				if question == "exit" || question == "quit" {
					break
				}

				exchange, err := sess.Ask(cmd.Context(), question)
				if err != nil {
					// The session survives individual failures.
					fmt.Fprintf(out, "error: %v\n", err)
					continue
				}
				fmt.Fprintf(out, "%s\n\n", exchange.Answer)
			}
			return scanner.Err()
		},
	}

	cmd.Flags().StringVarP(&tierFlag, "tier", "t", "", "Answer model tier override (cheap or premium)")
	return cmd
}
