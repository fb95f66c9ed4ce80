package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"aleph.im/sdk/corechannel"
)

func newNodesCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List network nodes from the corechannel aggregate",
		Args:  exactArgs(0),
	}
	kind := cmd.Flags().String("kind", "crn", "Node kind: crn (resource nodes) or ccn (core nodes)")
	top := cmd.Flags().Int("top", 0, "Only show the n best-scored resource nodes; 0 shows all")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		if *kind != "crn" && *kind != "ccn" {
			return usagef("--kind: want crn or ccn, got %q", *kind)
		}
		content, err := corechannel.Fetch(cmd.Context(), e.client)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
		if *kind == "ccn" {
			fmt.Fprintln(tw, "HASH\tNAME\tSCORE\tMULTIADDRESS")
			for _, n := range content.Nodes {
				fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", n.Hash, n.Name, n.Score, n.Multiaddress)
			}
			return tw.Flush()
		}

		nodes := content.ResourceNodes
		if *top > 0 {
			nodes = content.TopCRNs(*top)
		}
		fmt.Fprintln(tw, "HASH\tNAME\tSCORE\tADDRESS")
		for _, n := range nodes {
			fmt.Fprintf(tw, "%s\t%s\t%.3f\t%s\n", n.Hash, n.Name, n.Score, n.Address)
		}
		return tw.Flush()
	}
	return cmd
}
