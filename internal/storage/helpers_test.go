package storage_test

import "dmgo/backend/internal/models"

func chatIDs(items []models.ChatSummary) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ChatID)
	}
	return ids
}
