package domain

import "time"

// Comment is a note left by a team member on a task.
type Comment struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	TaskID    int64     `json:"task_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
