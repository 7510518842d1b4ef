package e2e

import (
	"encoding/json"
)

// extractID reads comment.id from a send_comment envelope.
func extractID(frame string) int64 {
	var envelope struct {
		Comment struct {
			ID int64 `json:"id"`
		} `json:"comment"`
	}
	if err := json.Unmarshal([]byte(frame), &envelope); err != nil {
		return 0
	}
	return envelope.Comment.ID
}
