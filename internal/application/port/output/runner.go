package output

import "time"

// TaskRunner is the owning sequence. Posted tasks run one at a time in post
// order; delayed tasks are posted once their delay elapses.
type TaskRunner interface {
	PostTask(task func())
	PostDelayedTask(task func(), delay time.Duration)
}
