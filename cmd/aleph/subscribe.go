package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSubscribeCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Stream new messages, one JSON record per line",
		Args:  exactArgs(0),
	}
	ff := addFilterFlags(cmd.Flags(), false)
	count := cmd.Flags().Int("count", 0, "Stop after this many messages; 0 streams until interrupted")
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		f, err := ff.build()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		events, err := e.client.Subscribe(ctx, f)
		if err != nil {
			return err
		}

		seen := 0
		for ev := range events {
			if ev.Err != nil {
				e.log.Warn("subscription event", zap.Error(ev.Err))
				fmt.Fprintf(e.errOut, "skipped: %v\n", ev.Err)
				continue
			}
			if err := writeJSON(e.out, ev.Message, false); err != nil {
				return err
			}
			seen++
			if *count > 0 && seen >= *count {
				return nil
			}
		}
		return nil
	}
	return cmd
}
