package main

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/krew-solutions/ascetic-search-go/asceticsearch/option"
	"github.com/krew-solutions/ascetic-search-go/asceticsearch/token"
)

type continuationView struct {
	ResourceSurrogateId int64   `json:"resourceSurrogateId"`
	ResourceTypeId      *int16  `json:"resourceTypeId,omitempty"`
	SortValue           *string `json:"sortValue,omitempty"`
}

type includesView struct {
	MatchResourceTypeId          int16         `json:"matchResourceTypeId"`
	MatchResourceSurrogateIdMin  int64         `json:"matchResourceSurrogateIdMin"`
	MatchResourceSurrogateIdMax  int64         `json:"matchResourceSurrogateIdMax"`
	IncludeResourceTypeId        *int16        `json:"includeResourceTypeId,omitempty"`
	IncludeResourceSurrogateId   *int64        `json:"includeResourceSurrogateId,omitempty"`
	SortQuerySecondPhase         *bool         `json:"sortQuerySecondPhase,omitempty"`
	SecondPhaseContinuationToken *includesView `json:"secondPhaseContinuationToken,omitempty"`
}

func viewOfIncludes(t *token.IncludesContinuationToken) *includesView {
	if t == nil {
		return nil
	}
	return &includesView{
		MatchResourceTypeId:          t.MatchResourceTypeId,
		MatchResourceSurrogateIdMin:  t.MatchResourceSurrogateIdMin,
		MatchResourceSurrogateIdMax:  t.MatchResourceSurrogateIdMax,
		IncludeResourceTypeId:        t.IncludeResourceTypeId.Ptr(),
		IncludeResourceSurrogateId:   t.IncludeResourceSurrogateId.Ptr(),
		SortQuerySecondPhase:         t.SortQuerySecondPhase.Ptr(),
		SecondPhaseContinuationToken: viewOfIncludes(t.SecondPhaseContinuationToken),
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Decode or encode primary continuation tokens",
	}

	decode := &cobra.Command{
		Use:   "decode <token>",
		Short: "Print the fields of a continuation token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := token.FromString(args[0])
			if t == nil {
				return errors.Errorf("not a continuation token: %q", args[0])
			}
			return printJSON(cmd, continuationView{
				ResourceSurrogateId: t.ResourceSurrogateId,
				ResourceTypeId:      t.ResourceTypeId.Ptr(),
				SortValue:           t.SortValue.Ptr(),
			})
		},
	}

	encode := &cobra.Command{
		Use:   "encode",
		Short: "Build a continuation token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			sid, _ := flags.GetInt64("sid")
			t := token.ContinuationToken{ResourceSurrogateId: sid}
			if flags.Changed("type") {
				typeID, _ := flags.GetInt16("type")
				t.ResourceTypeId = option.Some(typeID)
			}
			if flags.Changed("sort") {
				sortValue, _ := flags.GetString("sort")
				t.SortValue = option.Some(sortValue)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), t.ToJSON())
			return err
		},
	}
	encode.Flags().Int64("sid", 0, "resource surrogate id")
	encode.Flags().Int16("type", 0, "resource type id")
	encode.Flags().String("sort", "", "sort value")
	_ = encode.MarkFlagRequired("sid")

	cmd.AddCommand(decode, encode)
	return cmd
}

func newIncludesTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "includes-token",
		Short: "Decode includes continuation tokens",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "decode <token>",
		Short: "Print the fields of an includes continuation token, nested tokens included",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := token.IncludesFromString(args[0])
			if t == nil {
				return errors.Errorf("not an includes continuation token: %q", args[0])
			}
			return printJSON(cmd, viewOfIncludes(t))
		},
	})
	return cmd
}
