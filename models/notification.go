package models

import "time"

// Notification ids and user ids are strings because the Cassandra store keys rows by
// text user id and a time-based UUID.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProjectID string    `json:"projectId"`
	TaskID    string    `json:"taskId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
	IsRead    bool      `json:"isRead"`
}
