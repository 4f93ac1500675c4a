package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"shelfmark/internal/ipc"
)

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{formatStatusLabel(key), fmt.Sprintf("%d", stats[key])})
	}
	return rows
}

func buildQueueListRows(items []ipc.Download) [][]string {
	if len(items) == 0 {
		return nil
	}
	sorted := make([]ipc.Download, len(items))
	copy(sorted, items)

	sort.Slice(sorted, func(i, j int) bool {
		ti := parseQueueTime(sorted[i].CreatedAt)
		tj := parseQueueTime(sorted[j].CreatedAt)
		if ti.Equal(tj) {
			return sorted[i].ID > sorted[j].ID
		}
		return ti.After(tj)
	})

	rows := make([][]string, 0, len(sorted))
	for _, item := range sorted {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = "Unknown"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", item.ID),
			title,
			strings.TrimSpace(item.Author),
			item.Source,
			formatStatusLabel(item.Status),
			formatProgress(item),
			formatDisplayTime(item.CreatedAt),
		})
	}
	return rows
}

func formatProgress(item ipc.Download) string {
	if item.Status == "failed" && strings.TrimSpace(item.ErrorMessage) != "" {
		return truncateDetail(item.ErrorMessage, 40)
	}
	if item.Progress.Percent <= 0 && strings.TrimSpace(item.Progress.Message) == "" {
		return "-"
	}
	if strings.TrimSpace(item.Progress.Message) == "" {
		return fmt.Sprintf("%.0f%%", item.Progress.Percent)
	}
	return fmt.Sprintf("%.0f%% %s", item.Progress.Percent, truncateDetail(item.Progress.Message, 32))
}

func truncateDetail(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit > 3 && len(value) > limit {
		return value[:limit-3] + "..."
	}
	return value
}

func formatStatusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" {
		return ""
	}
	parts := strings.Split(status, "_")
	for i, part := range parts {
		lower := strings.ToLower(part)
		if lower == "" {
			continue
		}
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(parts, " ")
}

func formatDisplayTime(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC().Format("2006-01-02 15:04")
	}
	return value
}

func parseQueueTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
