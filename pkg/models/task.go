package models

import "time"

// ModelIdentity names the hosted model a call targets.
type ModelIdentity string

// String returns the model name.
func (m ModelIdentity) String() string {
	return string(m)
}

// Roles holds the three independent model identities used by the router.
type Roles struct {
	// Decision classifies a task as simple or complex.
	Decision ModelIdentity `json:"decision"`
	// TaskBreaker splits a complex task into subtasks, one per line.
	TaskBreaker ModelIdentity `json:"task_breaker"`
	// Worker answers atomic tasks. Chosen by the user and passed per route call.
	Worker ModelIdentity `json:"worker"`
}

// Task is a unit of text to route. The top-level prompt is the root task;
// every other task was emitted by the task-breaker model for its parent.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// ParentID is the ID of the task this one was decomposed from, if any.
	ParentID string `json:"parent_id,omitempty"`
	// Text is the task description sent to the models.
	Text string `json:"text"`
	// Depth is the number of decompositions between the root prompt and this task.
	Depth int `json:"depth"`
	// Index is the position of this task among its siblings.
	Index int `json:"index"`
	// Classification is set once the decision model has judged the task.
	Classification Classification `json:"classification,omitempty"`
}

// IsRoot reports whether the task is the user's original prompt.
func (t *Task) IsRoot() bool {
	return t.Depth == 0
}

// TaskResult is the worker model's reply to one atomic task.
type TaskResult struct {
	// Seq is the zero-based position of the result in discovery order.
	Seq int `json:"seq"`
	// TaskID is the ID of the dispatched task.
	TaskID string `json:"task_id"`
	// Task is the task text before any dispatch prefix was added.
	Task string `json:"task"`
	// Message is exactly what was sent to the worker model.
	Message string `json:"message"`
	// Model is the worker model that produced the output.
	Model ModelIdentity `json:"model"`
	// Output is the worker model's reply.
	Output string `json:"output"`
	// Depth is the depth of the dispatched task.
	Depth int `json:"depth"`
	// CompletedAt is when the reply was received.
	CompletedAt time.Time `json:"completed_at"`
}
