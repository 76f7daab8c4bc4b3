package engine

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jonboulle/clockwork"

	"github.com/naoTimesdev/naoTimes-sub002/internal/domain"
	"github.com/naoTimesdev/naoTimes-sub002/internal/metrics"
)

const (
	defaultTickInterval    = 1 * time.Second
	defaultRefreshInterval = 30 * time.Second

	cmdBufferSize     = 512
	resolveBufferSize = 64
	persistBufferSize = 256
	refreshBufferSize = 256

	persistAttempts = 3
	persistDelay    = 200 * time.Millisecond
)

// RenderFunc renders a poll's current tallies into message content for the
// periodic refresh.
type RenderFunc func(*domain.Poll) string

// --- Command types ---

type watcherCmd interface{ watcherCmd() }

type cmdReaction struct {
	ev domain.ReactionEvent
}

func (cmdReaction) watcherCmd() {}

type cmdTick struct{}

func (cmdTick) watcherCmd() {}

type cmdRefresh struct{}

func (cmdRefresh) watcherCmd() {}

type cmdTrack struct {
	poll    *domain.Poll
	replyCh chan error
}

func (cmdTrack) watcherCmd() {}

type cmdAbandon struct {
	pollID string
}

func (cmdAbandon) watcherCmd() {}

type cmdForget struct {
	pollID string
}

func (cmdForget) watcherCmd() {}

type cmdActiveCount struct {
	replyCh chan int
}

func (cmdActiveCount) watcherCmd() {}

type cmdStop struct {
	doneCh chan struct{}
}

func (cmdStop) watcherCmd() {}

type persistTask struct {
	pollID  string
	payload []byte
}

type refreshTask struct {
	pollID    string
	channelID string
	content   string
}

// --- Watcher ---

// Config wires the watcher's collaborators. Store, Sink, Guilds, Metrics and
// Render are required; zero intervals fall back to defaults.
type Config struct {
	Store           domain.Store
	Sink            domain.MessageSink
	Guilds          domain.GuildActions
	Clock           clockwork.Clock
	Metrics         *metrics.EngineMetrics
	Render          RenderFunc
	TickInterval    time.Duration
	RefreshInterval time.Duration
	Rand            *rand.Rand
}

// Watcher is the poll engine: a single actor goroutine that owns the
// registry, serializes every vote mutation and completion check, and hands
// side effects to background workers.
type Watcher struct {
	cmdCh    chan watcherCmd
	registry *Registry
	store    domain.Store
	sink     domain.MessageSink
	guilds   domain.GuildActions
	clock    clockwork.Clock
	metrics  *metrics.EngineMetrics
	render   RenderFunc
	rng      *rand.Rand

	resolveCh chan *domain.Poll
	persistCh chan persistTask
	refreshCh chan refreshTask

	tickInterval    time.Duration
	refreshInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	workers  chan struct{} // closed when all workers have drained
}

func NewWatcher(cfg Config) *Watcher {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Watcher{
		cmdCh:           make(chan watcherCmd, cmdBufferSize),
		registry:        NewRegistry(cfg.Store),
		store:           cfg.Store,
		sink:            cfg.Sink,
		guilds:          cfg.Guilds,
		clock:           cfg.Clock,
		metrics:         cfg.Metrics,
		render:          cfg.Render,
		rng:             cfg.Rand,
		resolveCh:       make(chan *domain.Poll, resolveBufferSize),
		persistCh:       make(chan persistTask, persistBufferSize),
		refreshCh:       make(chan refreshTask, refreshBufferSize),
		tickInterval:    cfg.TickInterval,
		refreshInterval: cfg.RefreshInterval,
		stopCh:          make(chan struct{}),
		workers:         make(chan struct{}),
	}
}

// Recover loads every persisted poll back into the registry. Call once
// before Start; expired polls resolve on the first scheduler tick.
func (w *Watcher) Recover(ctx context.Context) (int, error) {
	loaded, err := w.registry.LoadAll(ctx)
	if err != nil {
		return 0, err
	}
	w.metrics.ActivePolls.Set(float64(w.registry.Len()))
	return loaded, nil
}

// Start launches the actor, the scheduler loops and the side-effect workers.
func (w *Watcher) Start() {
	go w.run()
	go w.tickerLoop(w.tickInterval, func() watcherCmd { return cmdTick{} })
	go w.tickerLoop(w.refreshInterval, func() watcherCmd { return cmdRefresh{} })

	go func() {
		defer close(w.workers)
		persistDone := make(chan struct{})
		refreshDone := make(chan struct{})
		resolveDone := make(chan struct{})
		go func() { defer close(persistDone); w.persistWorker() }()
		go func() { defer close(refreshDone); w.refreshWorker() }()
		go func() { defer close(resolveDone); w.resolveWorker() }()
		<-persistDone
		<-refreshDone
		<-resolveDone
	}()
}

// HandleReaction feeds one gateway reaction event into the actor. Safe to
// call from any goroutine; events arriving after Stop are dropped.
func (w *Watcher) HandleReaction(ev domain.ReactionEvent) {
	w.sendCmd(cmdReaction{ev: ev})
}

// Track registers a freshly created poll and persists it before returning.
func (w *Watcher) Track(ctx context.Context, p *domain.Poll) error {
	replyCh := make(chan error, 1)
	select {
	case w.cmdCh <- cmdTrack{poll: p, replyCh: replyCh}:
	case <-w.stopCh:
		return context.Canceled
	}
	select {
	case err := <-replyCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ActiveCount reports the number of polls currently tracked. The reply
// round-trips through the actor, so it also acts as a barrier for previously
// submitted events.
func (w *Watcher) ActiveCount() int {
	replyCh := make(chan int, 1)
	select {
	case w.cmdCh <- cmdActiveCount{replyCh: replyCh}:
		return <-replyCh
	case <-w.stopCh:
		return 0
	}
}

// Stop shuts the engine down: intake closes, queued resolution work drains,
// and every still-active poll is flushed to the store for recovery.
func (w *Watcher) Stop(ctx context.Context) {
	w.stopOnce.Do(func() {
		doneCh := make(chan struct{})
		select {
		case w.cmdCh <- cmdStop{doneCh: doneCh}:
			<-doneCh
		case <-w.stopCh:
		}

		close(w.persistCh)
		close(w.refreshCh)
		close(w.resolveCh)
		<-w.workers

		w.registry.Flush(ctx)
	})
}

func (w *Watcher) sendCmd(cmd watcherCmd) {
	select {
	case w.cmdCh <- cmd:
	case <-w.stopCh:
	}
}

func (w *Watcher) tickerLoop(interval time.Duration, mk func() watcherCmd) {
	ticker := w.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			w.sendCmd(mk())
		case <-w.stopCh:
			return
		}
	}
}

// --- Actor loop ---

func (w *Watcher) run() {
	ctx := context.Background()
	for cmd := range w.cmdCh {
		switch c := cmd.(type) {
		case cmdReaction:
			w.handleReaction(ctx, c.ev)

		case cmdTick:
			w.handleTick()

		case cmdRefresh:
			w.handleRefresh()

		case cmdTrack:
			err := w.registry.Create(ctx, c.poll)
			if err == nil {
				w.metrics.ActivePolls.Set(float64(w.registry.Len()))
				slog.InfoContext(ctx, "Watcher: tracking poll", "poll_id", c.poll.ID, "kind", c.poll.Kind, "deadline", c.poll.Deadline)
			}
			c.replyCh <- err

		case cmdAbandon:
			// The poll's message vanished; resolve early with whatever
			// tallies we have instead of retrying edits forever.
			if p, ok := w.registry.Get(c.pollID); ok {
				slog.InfoContext(ctx, "Watcher: poll message gone, resolving early", "poll_id", c.pollID)
				w.beginResolution(p)
			}

		case cmdForget:
			w.registry.Remove(ctx, c.pollID)
			w.metrics.ActivePolls.Set(float64(w.registry.Len()))

		case cmdActiveCount:
			c.replyCh <- w.registry.Len()

		case cmdStop:
			close(w.stopCh)
			close(c.doneCh)
			return
		}
	}
}

func (w *Watcher) handleReaction(ctx context.Context, ev domain.ReactionEvent) {
	p, ok := w.registry.Get(ev.MessageID)
	if !ok {
		// Not every reaction belongs to a poll.
		return
	}
	key, ok := p.ChoiceByEmoji(ev.Emoji)
	if !ok {
		return
	}

	if ev.Added {
		if err := p.AddVote(ev.UserID, key); err != nil {
			// Benign: double-click races, self-votes, duplicate delivery.
			slog.DebugContext(ctx, "Watcher: vote rejected", "poll_id", p.ID, "user_id", ev.UserID, "choice", key, "reason", err)
			w.metrics.VotesTotal.WithLabelValues("rejected").Inc()
			return
		}
		w.metrics.VotesTotal.WithLabelValues("accepted").Inc()
		w.persistAsync(p)
		if p.IsComplete(w.clock.Now()) {
			w.beginResolution(p)
		}
		return
	}

	if err := p.RemoveVote(ev.UserID, key); err != nil {
		slog.DebugContext(ctx, "Watcher: vote removal rejected", "poll_id", p.ID, "user_id", ev.UserID, "choice", key, "reason", err)
		w.metrics.VotesTotal.WithLabelValues("rejected").Inc()
		return
	}
	w.metrics.VotesTotal.WithLabelValues("removed").Inc()
	// Removal can never push a tally over a limit, so no completion check.
	w.persistAsync(p)
}

func (w *Watcher) handleTick() {
	now := w.clock.Now()
	for _, p := range w.registry.All() {
		if !p.Resolved() && p.IsComplete(now) {
			w.beginResolution(p)
		}
	}
}

func (w *Watcher) handleRefresh() {
	for _, p := range w.registry.All() {
		if p.Resolved() {
			continue
		}
		task := refreshTask{pollID: p.ID, channelID: p.ChannelID, content: w.render(p)}
		select {
		case w.refreshCh <- task:
		default:
			// Refresh is best-effort; skip when the worker is behind.
		}
	}
}

// beginResolution transitions a poll into Resolving exactly once. The
// resolved flag is set here, inside the serialized mutation path, so a
// racing removal event or a second trigger cannot re-enter.
func (w *Watcher) beginResolution(p *domain.Poll) {
	if !p.MarkResolved() {
		return
	}
	w.resolveCh <- p
}

func (w *Watcher) persistAsync(p *domain.Poll) {
	payload, err := domain.EncodePoll(p)
	if err != nil {
		slog.Warn("Watcher: failed to encode poll snapshot", "poll_id", p.ID, "error", err)
		w.metrics.StoreErrors.Inc()
		return
	}
	select {
	case w.persistCh <- persistTask{pollID: p.ID, payload: payload}:
	default:
		// Writer is behind; the next mutation re-snapshots the same state.
		slog.Warn("Watcher: persist queue full, dropping snapshot", "poll_id", p.ID)
	}
}

// --- Workers ---

func (w *Watcher) persistWorker() {
	ctx := context.Background()
	for task := range w.persistCh {
		err := retry.Do(
			func() error {
				return w.store.Set(ctx, domain.PollKey(task.pollID), task.payload)
			},
			retry.Attempts(persistAttempts),
			retry.Delay(persistDelay),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			// The registry stays authoritative; the next mutation retries.
			slog.WarnContext(ctx, "Watcher: snapshot write failed", "poll_id", task.pollID, "error", err)
			w.metrics.StoreErrors.Inc()
		}
	}
}

func (w *Watcher) refreshWorker() {
	ctx := context.Background()
	for task := range w.refreshCh {
		err := w.sink.Edit(ctx, task.channelID, task.pollID, task.content)
		switch {
		case err == nil:
		case isNotFound(err):
			w.sendCmd(cmdAbandon{pollID: task.pollID})
		default:
			slog.DebugContext(ctx, "Watcher: poll refresh failed", "poll_id", task.pollID, "error", err)
		}
	}
}
