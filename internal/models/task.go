package models

// Task is one entry of the task-list artifact.
type Task struct {
	Content     string `json:"content"`
	Description string `json:"description"`
}

// TaskListPayload is the second export artifact, written as <slug>-v2.json.
// It is always derived from an ExportPayload.
type TaskListPayload struct {
	Tasks []Task `json:"tasks"`
}
