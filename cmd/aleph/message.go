package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aleph.im/sdk/client"
	"aleph.im/sdk/itemhash"
	"aleph.im/sdk/message"
)

func newMessageCmd(e *env) *cobra.Command {
	c := &cobra.Command{
		Use:   "message",
		Short: "Fetch and list messages",
	}
	c.AddCommand(newMessageGetCmd(e), newMessageListCmd(e))
	return c
}

type statusView struct {
	Status      message.Status           `json:"status"`
	ItemHash    itemhash.ItemHash        `json:"item_hash"`
	Reason      string                   `json:"reason,omitempty"`
	Pending     []client.PendingMessage  `json:"pending,omitempty"`
	Forgotten   *client.ForgottenMessage `json:"forgotten,omitempty"`
	ForgottenBy []itemhash.ItemHash      `json:"forgotten_by,omitempty"`
	Message     *message.Message         `json:"message,omitempty"`
}

func newMessageGetCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <item-hash>",
		Short: "Fetch one message and verify its item hash",
		Args:  exactArgs(1),
	}
	withStatus := cmd.Flags().Bool("status", false, "Print the processing status alongside the message")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		h, err := itemhash.ParseRef(args[0])
		if err != nil {
			return usageError{err}
		}
		if !*withStatus {
			m, err := e.client.GetMessage(cmd.Context(), h)
			if err != nil {
				return err
			}
			return writeJSON(e.out, m, true)
		}
		ms, err := e.client.GetMessageWithStatus(cmd.Context(), h)
		if err != nil {
			return err
		}
		return writeJSON(e.out, statusView{
			Status:      ms.Status,
			ItemHash:    h,
			Reason:      ms.Reason,
			Pending:     ms.Pending,
			Forgotten:   ms.Forgotten,
			ForgottenBy: ms.ForgottenBy,
			Message:     ms.Message,
		}, true)
	}
	return cmd
}

func newMessageListCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of messages, one JSON record per line",
		Args:  exactArgs(0),
	}
	ff := addFilterFlags(cmd.Flags(), true)
	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		f, err := ff.build()
		if err != nil {
			return err
		}
		page, err := e.client.GetMessages(cmd.Context(), f)
		if err != nil {
			return err
		}
		for _, m := range page.Messages {
			if err := writeJSON(e.out, m, false); err != nil {
				return err
			}
		}
		for _, ie := range page.Errors {
			e.log.Warn("skipped record",
				zap.Int("index", ie.Index),
				zap.String("item_hash", ie.RawID),
				zap.String("kind", string(ie.Err.Kind)),
				zap.String("rule", ie.Err.RuleID),
			)
			fmt.Fprintf(e.errOut, "skipped record %d (%s): %v\n", ie.Index, ie.RawID, ie.Err)
		}
		fmt.Fprintf(e.errOut, "%d messages, %d skipped (page %d, per page %d, total %d)\n",
			len(page.Messages), len(page.Errors), page.Page, page.PerPage, page.Total)
		return nil
	}
	return cmd
}

func writeJSON(w io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
