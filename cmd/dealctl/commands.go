package main

import (
	"time"

	"dealintake/internal/parser"

	"github.com/spf13/cobra"
)

func newSegmentCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "segment [file]",
		Short: "Split a message into candidate segments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.readInput(args)
			if err != nil {
				return err
			}
			return a.print(parser.Split(raw, a.opts.MinLength))
		},
	}
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract structured deals from a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.readInput(args)
			if err != nil {
				return err
			}
			resp, err := a.service.Preview(cmd.Context(), raw)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
}

func newMatchCmd(a *app) *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "match [file]",
		Short: "Rank seeded inventory against the first deal in a message",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.readInput(args)
			if err != nil {
				return err
			}
			var ownerPtr *string
			if cmd.Flags().Changed("owner") {
				ownerPtr = &owner
			}
			resp, err := a.service.MatchInventory(cmd.Context(), raw, ownerPtr)
			if err != nil {
				return err
			}
			return a.print(resp)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner name to match (default: the deal's known contact)")
	return cmd
}

func newProcessCmd(a *app) *cobra.Command {
	var receivedAt string

	cmd := &cobra.Command{
		Use:   "process [file...]",
		Short: "Run messages through dedupe and matching, in order",
		Long: "Each file is processed as a separate intake against the same in-memory\n" +
			"history, so later files are classified against earlier ones.",
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Time{}
			if receivedAt != "" {
				var err error
				if at, err = time.Parse(time.RFC3339, receivedAt); err != nil {
					return err
				}
			}

			inputs := [][]string{nil}
			if len(args) > 0 {
				inputs = inputs[:0]
				for _, f := range args {
					inputs = append(inputs, []string{f})
				}
			}
			for _, in := range inputs {
				raw, err := a.readInput(in)
				if err != nil {
					return err
				}
				resp, err := a.service.Process(cmd.Context(), raw, at)
				if err != nil {
					return err
				}
				if err := a.print(resp); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&receivedAt, "received-at", "", "RFC3339 receive time (default: now)")
	return cmd
}
