package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/customquery"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlgen"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/sqlparams"
)

func newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash [file]",
		Short: "Print the query hash and the stored procedure name a custom query must use",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := input(cmd, args)
			if err != nil {
				return err
			}
			hash := sqlparams.QueryHash(text)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", hash, customquery.ProcedureName(hash))
			return err
		},
	}
}

func newStripCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "strip [file]",
		Short: "Reduce a logged query to its statement",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := input(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), sqlgen.StripForLogging(text))
			return err
		},
	}
}
