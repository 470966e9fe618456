// Package scheduler drives repeated sync cycles.
//
// # Orchestrator
//
// A cycle drains the queued guild tasks, syncs guilds past their staleness
// threshold, then characters past theirs, then drains the queue once more.
// Items run one at a time. A failing item is logged and counted in the cycle
// Report without stopping the cycle.
//
// The orchestrator moves between Idle, Running and AbortRequested with
// compare-and-swap, so a second RunSync while a cycle runs returns
// ErrAlreadyRunning right away. AbortSync is cooperative: the cycle checks it
// between items and never interrupts the item in flight.
//
// # Task queue
//
// Guilds discovered through a character profile, or registered through the
// admin API, get a row in guild_sync_tasks. The row survives restarts and is
// removed once the guild synced, or after MaxTaskAttempts failures. Enqueue
// starts a run that drains the queue only; stale guilds and characters wait
// for the next full cycle.
//
// # Scheduler
//
// Scheduler starts a cycle every Config.Interval, and once at start when
// Config.RunOnStart is set. Ticks that land while a cycle is running are skipped.
//
// # HTTP
//
//   - GET  /sync/status            state and last report
//   - POST /sync/run               start a cycle (202, or 409 if running)
//   - POST /sync/abort             request a cooperative abort
//   - POST /guilds                 register a guild and queue its sync
//   - POST /guilds/:id/include     clear excluded_from_sync and queue a sync
//   - PUT  /guilds/:id/ranks/:rank set a custom rank name
//   - POST /characters/:id/reset   clear a character's failure counter
package scheduler
