package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage cached video artifacts",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached videos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.ContentKey,
					truncate(entry.URL, 48),
					entry.TranscriptionTier + "/" + entry.AnswerTier,
					entry.CreatedAt.Local().Format(time.DateTime),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(),
				renderTable([]string{"KEY", "URL", "TIERS", "CREATED"}, rows))
			return nil
		},
	}
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "show <key>",
		Short: "Show one cached entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, ok := store.Get(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("no cache entry for key %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Key:        %s\n", entry.ContentKey)
			fmt.Fprintf(out, "URL:        %s\n", entry.URL)
			fmt.Fprintf(out, "Tiers:      %s/%s\n", entry.TranscriptionTier, entry.AnswerTier)
			fmt.Fprintf(out, "Index:      %s\n", entry.IndexLocation)
			fmt.Fprintf(out, "Created:    %s\n", entry.CreatedAt.Local().Format(time.DateTime))
			fmt.Fprintf(out, "Summary:    %s\n", entry.Summary)
			if full {
				fmt.Fprintf(out, "Transcript:\n%s\n", entry.Transcript)
			} else {
				fmt.Fprintf(out, "Transcript: %s\n", truncate(entry.Transcript, 120))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "Print the full transcript")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if key != "" {
				if err := store.Remove(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed cache entry %s\n", key)
				return nil
			}

			count, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", count)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Remove only this content key")
	return cmd
}
