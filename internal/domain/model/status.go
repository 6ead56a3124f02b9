package model

import "time"

type TargetResult struct {
	Key      string `json:"key"`
	Attempts int    `json:"attempts"`
	Error    string `json:"error,omitempty"`
}

// CommandResult reports the outcome of one executed command per target.
type CommandResult struct {
	ID      string         `json:"id"`
	Op      Op             `json:"op"`
	Targets []TargetResult `json:"targets"`
}

func (r *CommandResult) Failed() int {
	n := 0
	for _, t := range r.Targets {
		if t.Error != "" {
			n++
		}
	}
	return n
}

type Health struct {
	State             string    `json:"state"`
	ConsecutiveErrors int       `json:"consecutive_errors"`
	LastSync          time.Time `json:"last_sync"`
	LastError         string    `json:"last_error,omitempty"`
	Lights            int       `json:"lights"`
	Groups            int       `json:"groups"`
	Entries           int       `json:"entries"`
	StartedAt         time.Time `json:"started_at"`
}
