package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// TaskStatus represents the status of a dictation task
type TaskStatus string

const (
	TaskStatusQueued     TaskStatus = "queued"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusFailed     TaskStatus = "failed"
)

// StudyItemKind distinguishes word items from sentence items
type StudyItemKind string

const (
	StudyItemWord     StudyItemKind = "word"
	StudyItemSentence StudyItemKind = "sentence"
)

// JSONB represents a JSONB field for PostgreSQL
type JSONB map[string]interface{}

// Value implements the driver.Valuer interface
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements the sql.Scanner interface
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Task represents one image-to-study-items dictation task. The server
// creates it when an image is uploaded; the worker carries it through
// OCR, extraction and audio pre-synthesis.
type Task struct {
	ID             string     `json:"id" db:"id"`
	Status         TaskStatus `json:"status" db:"status"`
	Mode           string     `json:"mode" db:"mode"`
	RecognizedText *string    `json:"recognized_text,omitempty" db:"recognized_text"`
	Attempts       int        `json:"attempts" db:"attempts"`
	ErrorText      *string    `json:"error_text,omitempty" db:"error_text"`
	Meta           JSONB      `json:"meta" db:"meta"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// StudyItem is one curated word or sentence produced for a task,
// annotated for dictation practice.
type StudyItem struct {
	ID        string        `json:"id" db:"id"`
	TaskID    string        `json:"task_id" db:"task_id"`
	Kind      StudyItemKind `json:"kind" db:"kind"`
	Text      string        `json:"text" db:"text"`
	Phonetic  string        `json:"phonetic,omitempty" db:"phonetic"`
	Meaning   string        `json:"meaning,omitempty" db:"meaning"`
	Example   string        `json:"example,omitempty" db:"example"`
	Rank      int           `json:"rank" db:"rank"`
	AudioID   *string       `json:"audio_id,omitempty" db:"audio_id"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// AudioAsset is one synthesized audio file, addressed by the content
// fingerprint of the request that produced it. Created once per unique
// fingerprint, never mutated.
type AudioAsset struct {
	ID         string    `json:"id" db:"id"`
	Key        string    `json:"key" db:"key"`
	SourceText string    `json:"source_text" db:"source_text"`
	VoiceID    string    `json:"voice_id" db:"voice_id"`
	Format     string    `json:"format" db:"format"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	SizeBytes  int64     `json:"size_bytes" db:"size_bytes"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsCompleted returns true if the task is in a final state
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusDone || t.Status == TaskStatusFailed
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Status == TaskStatusFailed && t.Attempts < 3
}

// IncrementAttempts increases the attempt counter
func (t *Task) IncrementAttempts() {
	t.Attempts++
}

// SetError sets the task status to failed with error message
func (t *Task) SetError(errorText string) {
	t.Status = TaskStatusFailed
	t.ErrorText = &errorText
	t.UpdatedAt = time.Now()
}

// SetCompleted sets the task status to done
func (t *Task) SetCompleted() {
	t.Status = TaskStatusDone
	t.UpdatedAt = time.Now()
}

// SetInProgress marks the task as picked up by a worker
func (t *Task) SetInProgress() {
	t.Status = TaskStatusInProgress
	t.UpdatedAt = time.Now()
}

// SetRecognizedText stores the OCR output on the task
func (t *Task) SetRecognizedText(text string) {
	t.RecognizedText = &text
	t.UpdatedAt = time.Now()
}
