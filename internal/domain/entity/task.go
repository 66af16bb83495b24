package entity

import "strconv"

// TaskID names the actor task that owns a sequence of tool invocations.
type TaskID int32

func (id TaskID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

type TaskState string

const (
	TaskStateCreated TaskState = "created"
	TaskStateActing  TaskState = "acting"
	TaskStateReady   TaskState = "ready"
	TaskStatePaused  TaskState = "paused"
	TaskStateStopped TaskState = "stopped"
)

type TaskInfo struct {
	ID    TaskID    `json:"id"`
	Title string    `json:"title"`
	State TaskState `json:"state"`
	Tab   TabHandle `json:"tab"`
}
