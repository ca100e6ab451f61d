package api

const maxBodySize = 64 * 1024 // 64 KiB

const (
	tasksRoute = "/api/tasks"
	taskRoute  = "/api/tasks/:id"
)

const (
	msgInvalidBody  = "invalid request body"
	msgFetchFailed  = "Failed to fetch tasks"
	msgCreateFailed = "Failed to create task"
	msgUpdateFailed = "Failed to update task"
	msgDeleteFailed = "Failed to delete task"
	msgCreated      = "Task created successfully"
	msgUpdated      = "Task updated successfully"
	msgDeleted      = "Task deleted successfully"
	msgInternal     = "Internal server error"
)

// envelope is the body of every /api response. A failed response carries
// Error and never Data.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
