package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shelfmark/internal/api"
	"shelfmark/internal/ipc"
	"shelfmark/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the download queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func parsePositiveIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid item id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				stats, err := fetchQueueStats(cmd, client, store)
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd, stats)
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func fetchQueueStats(cmd *cobra.Command, client *ipc.Client, store *queue.Store) (map[string]int, error) {
	if client != nil {
		status, err := client.Status()
		if err != nil {
			return nil, err
		}
		return status.QueueStats, nil
	}
	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return nil, err
	}
	converted := make(map[string]int, len(stats))
	for status, count := range stats {
		converted[string(status)] = count
	}
	return converted, nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued downloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				items, err := fetchQueueItems(cmd, client, store, listStatuses)
				if err != nil {
					return err
				}

				if asJSON {
					if items == nil {
						items = []ipc.Download{}
					}
					return writeJSON(cmd, items)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Title", "Author", "Source", "Status", "Progress", "Created"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func fetchQueueItems(cmd *cobra.Command, client *ipc.Client, store *queue.Store, statuses []string) ([]ipc.Download, error) {
	if client != nil {
		resp, err := client.QueueList(statuses)
		if err != nil {
			return nil, err
		}
		return resp.Items, nil
	}

	var filters []queue.Status
	for _, value := range statuses {
		parsed, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown queue status %q", value)
		}
		filters = append(filters, parsed)
	}
	items, err := store.List(cmd.Context(), filters...)
	if err != nil {
		return nil, err
	}
	return api.FromDownloads(items), nil
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <itemID>",
		Short: "Show details for one download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}
			id := ids[0]

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				item, err := fetchQueueItem(cmd, client, store, id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if item == nil {
					if asJSON {
						return writeJSON(cmd, map[string]any{"error": "not_found", "id": id})
					}
					fmt.Fprintf(out, "Item %d not found\n", id)
					return nil
				}
				if asJSON {
					return writeJSON(cmd, item)
				}

				fmt.Fprintf(out, "ID:          %d\n", item.ID)
				fmt.Fprintf(out, "Title:       %s\n", item.Title)
				if item.Author != "" {
					fmt.Fprintf(out, "Author:      %s\n", item.Author)
				}
				fmt.Fprintf(out, "Source:      %s\n", item.Source)
				fmt.Fprintf(out, "Type:        %s\n", item.ContentType)
				fmt.Fprintf(out, "Status:      %s\n", formatStatusLabel(item.Status))
				if item.Progress.Percent > 0 || item.Progress.Message != "" {
					fmt.Fprintf(out, "Progress:    %s\n", formatProgress(*item))
				}
				if item.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:       %s\n", item.ErrorMessage)
				}
				if item.RequestedBy != "" {
					fmt.Fprintf(out, "Requested:   %s\n", item.RequestedBy)
				}
				if item.FilePath != "" {
					fmt.Fprintf(out, "File:        %s\n", item.FilePath)
				}
				if item.CreatedAt != "" {
					fmt.Fprintf(out, "Created:     %s\n", formatDisplayTime(item.CreatedAt))
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func fetchQueueItem(cmd *cobra.Command, client *ipc.Client, store *queue.Store, id int64) (*ipc.Download, error) {
	if client != nil {
		resp, err := client.QueueDescribe(id)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "not found") {
				return nil, nil
			}
			return nil, err
		}
		if resp == nil {
			return nil, nil
		}
		return &resp.Item, nil
	}

	item, err := store.GetByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}
	converted := api.FromDownload(item)
	return &converted, nil
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				var removed int64
				var label string
				var err error

				switch {
				case clearCompleted:
					label = "completed items"
					if client != nil {
						var resp *ipc.QueueClearCompletedResponse
						resp, err = client.QueueClearCompleted()
						if resp != nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearCompleted(cmd.Context())
					}
				case clearFailed:
					label = "failed items"
					if client != nil {
						var resp *ipc.QueueClearFailedResponse
						resp, err = client.QueueClearFailed()
						if resp != nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.ClearFailed(cmd.Context())
					}
				default:
					label = "queue items"
					if client != nil {
						var resp *ipc.QueueClearResponse
						resp, err = client.QueueClear()
						if resp != nil {
							removed = resp.Removed
						}
					} else {
						removed, err = store.Clear(cmd.Context())
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d %s\n", removed, label)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var updated int64
				var err error
				if client != nil {
					var resp *ipc.QueueResetResponse
					resp, err = client.QueueReset()
					if resp != nil {
						updated = resp.Updated
					}
				} else {
					updated, err = store.ResetStuckProcessing(cmd.Context())
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
				return nil
			})
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed downloads",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()

				if len(ids) == 0 {
					var updated int64
					var err error
					if client != nil {
						var resp *ipc.QueueRetryResponse
						resp, err = client.QueueRetry(nil)
						if resp != nil {
							updated = resp.Updated
						}
					} else {
						updated, err = store.RetryFailed(cmd.Context())
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Retried %d failed items\n", updated)
					return nil
				}

				for _, id := range ids {
					item, err := fetchQueueItem(cmd, client, store, id)
					if err != nil {
						return err
					}
					if item == nil {
						fmt.Fprintf(out, "Item %d not found\n", id)
						continue
					}
					if item.Status != string(queue.StatusFailed) {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
						continue
					}

					var updated int64
					if client != nil {
						resp, retryErr := client.QueueRetry([]int64{id})
						if retryErr != nil {
							return retryErr
						}
						updated = resp.Updated
					} else {
						updated, err = store.RetryFailed(cmd.Context(), id)
						if err != nil {
							return err
						}
					}
					if updated > 0 {
						fmt.Fprintf(out, "Item %d reset for retry\n", id)
					} else {
						fmt.Fprintf(out, "Item %d is not in failed state\n", id)
					}
				}
				return nil
			})
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID...>",
		Short: "Remove specific downloads from the queue",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parsePositiveIDs(args)
			if err != nil {
				return err
			}

			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				out := cmd.OutOrStdout()
				if client != nil {
					resp, err := client.QueueRemove(ids)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed %d items\n", resp.Removed)
					return nil
				}

				var removed int64
				for _, id := range ids {
					ok, err := store.Remove(cmd.Context(), id)
					if err != nil {
						return err
					}
					if ok {
						removed++
					} else {
						fmt.Fprintf(out, "Item %d not found\n", id)
					}
				}
				fmt.Fprintf(out, "Removed %d items\n", removed)
				return nil
			})
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(client *ipc.Client, store *queue.Store) error {
				var health queue.HealthSummary
				if client != nil {
					resp, err := client.QueueHealth()
					if err != nil {
						return err
					}
					health = queue.HealthSummary{
						Total:      resp.Total,
						Pending:    resp.Pending,
						Processing: resp.Processing,
						Failed:     resp.Failed,
						Completed:  resp.Completed,
					}
				} else {
					var err error
					health, err = store.Health(cmd.Context())
					if err != nil {
						return err
					}
				}

				if asJSON {
					return writeJSON(cmd, map[string]int{
						"total":      health.Total,
						"pending":    health.Pending,
						"processing": health.Processing,
						"failed":     health.Failed,
						"completed":  health.Completed,
					})
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nCompleted: %d\n",
					health.Total,
					health.Pending,
					health.Processing,
					health.Failed,
					health.Completed,
				)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
