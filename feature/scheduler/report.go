package scheduler

import "time"

// StageReport counts the items handled by one stage of a cycle.
type StageReport struct {
	Selected  int `json:"selected"`
	Succeeded int `json:"succeeded"`
	Skipped   int `json:"skipped"`
	// Disabled counts guilds excluded and characters marked unavailable.
	Disabled int `json:"disabled"`
	Failed   int `json:"failed"`
}

// Report summarizes one sync cycle.
type Report struct {
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	Tasks      StageReport `json:"tasks"`
	Guilds     StageReport `json:"guilds"`
	Characters StageReport `json:"characters"`
	Aborted    bool        `json:"aborted"`
}

// Duration returns how long the cycle took.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
