package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/ipc"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserRemoveCommand(ctx))

	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var role string
	var canDownload bool

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create or update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UserAdd(ipc.UserAddRequest{
					Username:    strings.TrimSpace(args[0]),
					Role:        role,
					CanDownload: canDownload,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Account %s saved (role %s, downloads %s)\n",
					resp.User.Username, resp.User.Role, yesNo(resp.User.CanDownload))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&role, "role", "r", "member", "Account role (admin or member)")
	cmd.Flags().BoolVar(&canDownload, "can-download", true, "Allow the account to trigger downloads directly")
	return cmd
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UserList()
				if err != nil {
					return err
				}

				if asJSON {
					users := resp.Users
					if users == nil {
						users = []ipc.User{}
					}
					return writeJSON(cmd, users)
				}

				if len(resp.Users) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No accounts")
					return nil
				}

				rows := make([][]string, 0, len(resp.Users))
				for _, user := range resp.Users {
					rows = append(rows, []string{
						user.Username,
						user.Role,
						yesNo(user.CanDownload),
						formatDisplayTime(user.CreatedAt),
					})
				}
				table := renderTable(
					[]string{"Username", "Role", "Downloads", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newUserRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				username := strings.TrimSpace(args[0])
				resp, err := client.UserRemove(username)
				if err != nil {
					return err
				}
				if resp.Removed {
					fmt.Fprintf(cmd.OutOrStdout(), "Account %s removed\n", username)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Account %s not found\n", username)
				}
				return nil
			})
		},
	}
}
