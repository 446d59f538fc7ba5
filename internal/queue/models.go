package queue

import "time"

// DictationTask is the message the server publishes when an image is
// uploaded. The image itself is parked in object storage; the worker
// picks it up by key.
type DictationTask struct {
	TaskID    string    `json:"task_id"`
	ImageKey  string    `json:"image_key"`
	Mode      string    `json:"mode"`
	Language  string    `json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
