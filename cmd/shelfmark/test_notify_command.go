package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if resp != nil && resp.Message != "" {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				}
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing notification response")
				}
				if resp.Message == "" {
					if resp.Sent {
						fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "Notification not sent")
					}
				}
				return nil
			})
		},
	}
}
