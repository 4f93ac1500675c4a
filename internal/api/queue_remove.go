package api

import "context"

type RemoveItemOutcome string

const (
	RemoveItemRemoved  RemoveItemOutcome = "removed"
	RemoveItemNotFound RemoveItemOutcome = "not_found"
)

type RemoveItemResult struct {
	ID      int64             `json:"id"`
	Outcome RemoveItemOutcome `json:"outcome"`
}

type RemoveItemsResult struct {
	RemovedCount int64              `json:"removedCount"`
	Items        []RemoveItemResult `json:"items"`
}

// RemoveItemsByID removes queue items one at a time so each ID can report
// removed or not_found.
func RemoveItemsByID(ctx context.Context, service QueueRemoveService, ids []int64) (RemoveItemsResult, error) {
	result := RemoveItemsResult{Items: make([]RemoveItemResult, 0, len(ids))}
	for _, id := range ids {
		removed, err := service.Remove(ctx, id)
		if err != nil {
			return RemoveItemsResult{}, err
		}
		outcome := RemoveItemNotFound
		if removed {
			outcome = RemoveItemRemoved
			result.RemovedCount++
		}
		result.Items = append(result.Items, RemoveItemResult{ID: id, Outcome: outcome})
	}
	return result, nil
}
