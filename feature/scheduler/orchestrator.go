package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"roster-sync/feature/character"
	"roster-sync/feature/guild"
	"roster-sync/feature/models"
	"roster-sync/feature/store"

	"go.uber.org/zap"
)

// MaxTaskAttempts is the number of failed syncs after which a queued guild task is dropped.
const MaxTaskAttempts = 5

// ErrAlreadyRunning is returned when a cycle is requested while one is in progress.
var ErrAlreadyRunning = errors.New("sync already running")

// State is the lifecycle state of the orchestrator.
type State int32

const (
	Idle State = iota
	Running
	// AbortRequested is a running cycle that stops before its next item.
	AbortRequested
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case AbortRequested:
		return "abort_requested"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// GuildSyncer syncs single guilds.
type GuildSyncer interface {
	Sync(ctx context.Context, g *models.Guild) (guild.Outcome, error)
	SyncByID(ctx context.Context, id uint) (guild.Outcome, error)
}

// CharacterSyncer syncs single characters.
type CharacterSyncer interface {
	Sync(ctx context.Context, c *models.Character) (character.Outcome, error)
}

// Orchestrator runs sync cycles: queued guild tasks, stale guilds, stale
// characters, then the task queue again. At most one cycle runs at a time.
type Orchestrator struct {
	store      *store.Store
	guilds     GuildSyncer
	characters CharacterSyncer
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	state atomic.Int32
	last  atomic.Pointer[Report]
	wg    sync.WaitGroup
}

// NewOrchestrator creates an idle Orchestrator.
func NewOrchestrator(s *store.Store, guilds GuildSyncer, characters CharacterSyncer, cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:      s,
		guilds:     guilds,
		characters: characters,
		cfg:        cfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// LastReport returns the report of the last finished cycle, or nil.
func (o *Orchestrator) LastReport() *Report {
	return o.last.Load()
}

// RunSync runs one cycle and blocks until it finishes. It returns
// ErrAlreadyRunning immediately when a cycle is in progress.
func (o *Orchestrator) RunSync(ctx context.Context) (*Report, error) {
	if !o.state.CompareAndSwap(int32(Idle), int32(Running)) {
		return nil, ErrAlreadyRunning
	}
	return o.run(ctx, o.fullCycle), nil
}

// Start runs one cycle in the background. It reports false when a cycle is
// already in progress. Wait blocks until background cycles are done.
func (o *Orchestrator) Start(ctx context.Context) bool {
	return o.launch(ctx, o.fullCycle)
}

// Wait blocks until every cycle started with Start or Enqueue has finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// AbortSync asks the running cycle to stop before its next item. The item in
// flight is never interrupted. It reports whether a cycle was running.
func (o *Orchestrator) AbortSync() bool {
	if o.state.CompareAndSwap(int32(Running), int32(AbortRequested)) {
		o.logger.Info("Sync abort requested")
		return true
	}
	return o.State() == AbortRequested
}

// Enqueue records a pending sync for a guild and starts a background run that
// drains the task queue only. When a cycle is already running it drains the
// queue before it ends.
func (o *Orchestrator) Enqueue(ctx context.Context, guildID uint) error {
	if err := o.store.Tasks.Enqueue(ctx, guildID, o.now()); err != nil {
		return fmt.Errorf("failed to enqueue guild %d: %w", guildID, err)
	}
	o.launch(context.WithoutCancel(ctx), o.drainTasks)
	return nil
}

// launch runs stages in the background when the orchestrator is idle.
func (o *Orchestrator) launch(ctx context.Context, stages func(context.Context, *Report)) bool {
	// Counted before the transition so a concurrent Wait cannot miss the run
	o.wg.Add(1)
	if !o.state.CompareAndSwap(int32(Idle), int32(Running)) {
		o.wg.Done()
		return false
	}
	go func() {
		defer o.wg.Done()
		o.run(ctx, stages)
	}()
	return true
}

func (o *Orchestrator) fullCycle(ctx context.Context, report *Report) {
	o.drainTasks(ctx, report)
	o.syncGuilds(ctx, report)
	o.syncCharacters(ctx, report)
	o.drainTasks(ctx, report)
}

// run executes stages while the orchestrator is Running and returns it to Idle.
func (o *Orchestrator) run(ctx context.Context, stages func(context.Context, *Report)) *Report {
	report := &Report{StartedAt: o.now()}
	defer func() {
		report.FinishedAt = o.now()
		o.last.Store(report)
		o.state.Store(int32(Idle))
	}()

	o.logger.Info("Sync cycle started")
	stages(ctx, report)

	report.FinishedAt = o.now()
	o.logger.Info("Sync cycle finished",
		zap.Duration("duration", report.Duration()),
		zap.Bool("aborted", report.Aborted),
		zap.Int("tasks", report.Tasks.Selected),
		zap.Int("guilds", report.Guilds.Selected),
		zap.Int("guilds_failed", report.Guilds.Failed),
		zap.Int("characters", report.Characters.Selected),
		zap.Int("characters_failed", report.Characters.Failed),
	)
	return report
}

// stop reports whether the cycle must end before the next item.
func (o *Orchestrator) stop(ctx context.Context, report *Report) bool {
	if o.State() == AbortRequested || ctx.Err() != nil {
		report.Aborted = true
		return true
	}
	return false
}

func (o *Orchestrator) drainTasks(ctx context.Context, report *Report) {
	if o.stop(ctx, report) {
		return
	}
	tasks, err := o.store.Tasks.Pending(ctx, o.cfg.BatchSize)
	if err != nil {
		o.logger.Error("Failed to load guild sync tasks", zap.Error(err))
		return
	}

	for _, task := range tasks {
		if o.stop(ctx, report) {
			return
		}
		report.Tasks.Selected++

		outcome, err := safely(func() (guild.Outcome, error) { return o.guilds.SyncByID(ctx, task.GuildID) })
		switch {
		case errors.Is(err, store.ErrNotFound):
			report.Tasks.Skipped++
		case err != nil:
			report.Tasks.Failed++
			o.failTask(ctx, task, err)
			continue
		default:
			countGuild(&report.Tasks, outcome, nil)
		}
		if err := o.store.Tasks.Complete(ctx, task.GuildID); err != nil {
			o.logger.Error("Failed to complete guild sync task", zap.Uint("guild_id", task.GuildID), zap.Error(err))
		}
	}
}

func (o *Orchestrator) failTask(ctx context.Context, task models.GuildSyncTask, cause error) {
	log := o.logger.With(zap.Uint("guild_id", task.GuildID))

	attempts, err := o.store.Tasks.Fail(ctx, task.GuildID, cause)
	if err != nil {
		log.Error("Failed to record guild sync task failure", zap.Error(err))
		return
	}
	if attempts < MaxTaskAttempts {
		log.Warn("Queued guild sync failed", zap.Int("attempts", attempts), zap.Error(cause))
		return
	}

	log.Warn("Dropping guild sync task", zap.Int("attempts", attempts), zap.Error(cause))
	if err := o.store.Tasks.Complete(ctx, task.GuildID); err != nil {
		log.Error("Failed to drop guild sync task", zap.Error(err))
	}
}

func (o *Orchestrator) syncGuilds(ctx context.Context, report *Report) {
	if o.stop(ctx, report) {
		return
	}
	guilds, err := o.store.Guilds.FindOutdated(ctx, o.now().Add(-o.cfg.GuildStaleAfter), o.cfg.BatchSize)
	if err != nil {
		o.logger.Error("Failed to load outdated guilds", zap.Error(err))
		return
	}

	for i := range guilds {
		if o.stop(ctx, report) {
			return
		}
		g := &guilds[i]
		report.Guilds.Selected++

		outcome, err := safely(func() (guild.Outcome, error) { return o.guilds.Sync(ctx, g) })
		if err != nil {
			o.logger.Warn("Guild sync failed",
				zap.Uint("guild_id", g.ID),
				zap.String("guild", g.Name),
				zap.Error(err),
			)
		}
		countGuild(&report.Guilds, outcome, err)
	}
}

func (o *Orchestrator) syncCharacters(ctx context.Context, report *Report) {
	if o.stop(ctx, report) {
		return
	}
	before := o.now().Add(-o.cfg.CharacterStaleAfter)
	chars, err := o.store.Characters.FindOutdated(ctx, before, o.cfg.MaxUpdateFailures, o.cfg.BatchSize)
	if err != nil {
		o.logger.Error("Failed to load outdated characters", zap.Error(err))
		return
	}

	for i := range chars {
		if o.stop(ctx, report) {
			return
		}
		c := &chars[i]
		report.Characters.Selected++

		outcome, err := safely(func() (character.Outcome, error) { return o.characters.Sync(ctx, c) })
		if err != nil {
			o.logger.Warn("Character sync failed",
				zap.Uint("character_id", c.ID),
				zap.String("character", c.Name),
				zap.Error(err),
			)
			outcome = character.Failed
		}

		switch outcome {
		case character.Synced:
			report.Characters.Succeeded++
		case character.Skipped:
			report.Characters.Skipped++
		case character.Unavailable:
			report.Characters.Disabled++
		default:
			report.Characters.Failed++
		}
	}
}

func countGuild(r *StageReport, outcome guild.Outcome, err error) {
	if err != nil {
		r.Failed++
		return
	}
	switch outcome {
	case guild.Synced:
		r.Succeeded++
	case guild.Skipped:
		r.Skipped++
	case guild.Excluded:
		r.Disabled++
	default:
		r.Failed++
	}
}

// safely runs fn and turns a panic into an error so one item cannot end the cycle.
func safely[T any](fn func() (T, error)) (out T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}
