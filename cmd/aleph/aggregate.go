package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"aleph.im/sdk/types"
)

func newAggregateCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "aggregate",
		Short: "Read aggregates",
	}
	c.AddCommand(&cobra.Command{
		Use:   "get <address> <key>",
		Short: "Print the current value of an aggregate key",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v json.RawMessage
			if err := e.client.GetAggregate(cmd.Context(), types.Address(args[0]), args[1], &v); err != nil {
				return err
			}
			return writeJSON(e.out, v, true)
		},
	})
	return c
}
