package api

import (
	"context"

	"shelfmark/internal/queue"
)

// QueueActionService captures the queue operations per-item retry needs.
type QueueActionService interface {
	Describe(ctx context.Context, id int64) (*Download, error)
	Retry(ctx context.Context, ids []int64) (int64, error)
}

// QueueRemoveService captures the queue operation per-item remove needs.
type QueueRemoveService interface {
	Remove(ctx context.Context, id int64) (bool, error)
}

type RetryItemOutcome string

const (
	RetryItemUpdated   RetryItemOutcome = "retried"
	RetryItemNotFound  RetryItemOutcome = "not_found"
	RetryItemNotFailed RetryItemOutcome = "not_failed"
)

type RetryItemResult struct {
	ID      int64            `json:"id"`
	Outcome RetryItemOutcome `json:"outcome"`
}

type RetryItemsResult struct {
	UpdatedCount int64             `json:"updatedCount"`
	Items        []RetryItemResult `json:"items"`
}

// RetryFailedItemsByID retries each listed item, reporting per-ID outcomes.
// Only items currently in the failed state are touched.
func RetryFailedItemsByID(ctx context.Context, service QueueActionService, ids []int64) (RetryItemsResult, error) {
	result := RetryItemsResult{Items: make([]RetryItemResult, 0, len(ids))}
	for _, id := range ids {
		outcome, updated, err := retryOne(ctx, service, id)
		if err != nil {
			return RetryItemsResult{}, err
		}
		result.UpdatedCount += updated
		result.Items = append(result.Items, RetryItemResult{ID: id, Outcome: outcome})
	}
	return result, nil
}

func retryOne(ctx context.Context, service QueueActionService, id int64) (RetryItemOutcome, int64, error) {
	item, err := service.Describe(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if item == nil {
		return RetryItemNotFound, 0, nil
	}
	if status, ok := queue.ParseStatus(item.Status); !ok || status != queue.StatusFailed {
		return RetryItemNotFailed, 0, nil
	}
	updated, err := service.Retry(ctx, []int64{id})
	if err != nil {
		return "", 0, err
	}
	if updated == 0 {
		return RetryItemNotFailed, 0, nil
	}
	return RetryItemUpdated, updated, nil
}
