package model

// FileEvent represents a file system event on an event log
type FileEvent struct {
	Path      string
	Operation string
}

// UserStatus is the derived check-in state of a user.
type UserStatus struct {
	UserID     string      `json:"userId"`
	IsSleeping bool        `json:"isSleeping"`
	Current    *SleepCycle `json:"current,omitempty"`
	NextKind   EventKind   `json:"nextKind"`
}
