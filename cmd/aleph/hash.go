package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"aleph.im/sdk/cidutil"
	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
)

func newHashCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <file|->",
		Short: "Print the item hash and IPFS CIDv0 of a file",
		Args:  exactArgs(1),
	}
	canonical := cmd.Flags().Bool("json", false, "Hash the canonical JSON form, as for storage-backed message content")
	v1 := cmd.Flags().Bool("v1", false, "Also print the CIDv1 (raw codec) form")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var b []byte
		var err error
		if args[0] == "-" {
			b, err = io.ReadAll(cmd.InOrStdin())
		} else {
			b, err = os.ReadFile(args[0])
		}
		if err != nil {
			return usageError{err}
		}
		if *canonical {
			if b, err = message.CanonicalJSON(b); err != nil {
				return usageError{err}
			}
		}
		v0, err := itemhash.CIDv0FromBytes(b)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(e.out, "%s\n%s\n", itemhash.FromBytes(b), v0); err != nil {
			return err
		}
		if !*v1 {
			return nil
		}
		id, err := cidutil.V1RawSHA256(b)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(e.out, id)
		return err
	}
	return cmd
}
