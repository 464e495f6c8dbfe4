package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/customquery"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/tunable"
)

func newCustomQueriesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "custom-queries",
		Short: "List the precompiled search procedures by query hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, cfg, l, err := a.open()
			if err != nil {
				return err
			}
			defer pool.Close()
			cache := customquery.NewCache(pool,
				customquery.WithWaitTime(cfg.Search.CustomQueryWaitTime),
				customquery.WithLogger(l))
			if err := cache.Refresh(cmd.Context()); err != nil {
				return err
			}
			entries := cache.Entries()
			hashes := make([]string, 0, len(entries))
			for hash := range entries {
				hashes = append(hashes, hash)
			}
			sort.Strings(hashes)
			for _, hash := range hashes {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", hash, entries[hash]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newParameterCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parameter",
		Short: "Read search tunables from dbo.Parameters",
	}
	get := &cobra.Command{
		Use:   "get <name>",
		Short: "Print the effective value of a tunable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, _, l, err := a.open()
			if err != nil {
				return err
			}
			defer pool.Close()
			store, err := tunable.NewStore(pool, tunable.WithLogger(l))
			if err != nil {
				return err
			}
			defer store.Close()
			defaultValue, _ := cmd.Flags().GetFloat64("default")
			if !cmd.Flags().Changed("default") {
				defaultValue = tunable.Defaults[args[0]]
			}
			p := store.Parameter(args[0], defaultValue)
			value := p.Value(cmd.Context())
			source := "database"
			if p.LastFetchFailed() {
				source = "default"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%g\t%s\n", p.Name(), value, source)
			return err
		},
	}
	get.Flags().Float64("default", 0, "value used when the parameter cannot be read")
	cmd.AddCommand(get)
	return cmd
}
