package progress

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/mathportal/internal/auth"
	"github.com/abhisek/mathportal/internal/clock"
	"github.com/abhisek/mathportal/internal/lesson"
)

// DefaultSyncInterval is how often accumulated progress is pushed while a
// lesson stays open.
const DefaultSyncInterval = 30 * time.Second

var (
	ErrUnknownSection  = errors.New("unknown section")
	ErrNoPartialCredit = errors.New("section kind does not take partial credit")
	ErrNotInitialized  = errors.New("progress controller not initialized")
	ErrAlreadyStarted  = errors.New("progress controller already initialized")
	errMissingCache    = errors.New("progress controller requires a cache")
	errMissingSlug     = errors.New("progress controller requires a lesson slug")
)

// Options configures a Controller.
type Options struct {
	Lesson   lesson.Lesson
	Sections []lesson.Section
	User     auth.User

	// Remote may be nil for offline viewing; progress then lives only in
	// the cache.
	Remote LessonService
	Cache  *Cache
	Clock  clock.Clock
	Log    zerolog.Logger

	SyncInterval time.Duration

	// OnSync observes each remote write outcome. Called from the sync
	// worker goroutine.
	OnSync func(ProgressUpdate, error)
}

// Controller is the single authority mutating a learner's progress through
// one lesson. All methods are safe for concurrent use.
type Controller struct {
	lesson   lesson.Lesson
	sections []lesson.Section
	user     auth.User
	cache    *Cache
	clock    clock.Clock
	log      zerolog.Logger
	interval int // seconds

	sync *syncer

	mu          sync.Mutex
	state       *State
	active      int
	sinceSync   int
	initialized bool
	closed      bool
	timer       clock.Handle
}

// NewController validates the sections and returns a controller that must
// be initialized before use.
func NewController(opts Options) (*Controller, error) {
	if err := lesson.Validate(opts.Sections); err != nil {
		return nil, err
	}
	if opts.Cache == nil {
		return nil, errMissingCache
	}
	if opts.Lesson.Slug == "" {
		return nil, errMissingSlug
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	interval := opts.SyncInterval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}

	log := opts.Log.With().
		Str("component", "progress").
		Str("lesson", opts.Lesson.Slug).
		Logger()

	c := &Controller{
		lesson:   opts.Lesson,
		sections: opts.Sections,
		user:     opts.User,
		cache:    opts.Cache,
		clock:    opts.Clock,
		log:      log,
		interval: int(math.Ceil(interval.Seconds())),
		state:    NewState(),
	}
	if opts.Remote != nil {
		c.sync = newSyncer(opts.Remote, log)
		c.sync.onResult = opts.OnSync
	}
	return c, nil
}

// Initialize hydrates the state. Precedence: the remote snapshot when the
// user is signed in and it carries progress, then the local cache, then an
// empty state. Without an explicit completed list the first
// round(percent/100 × n) sections are marked done. The resulting state is
// written to the cache and the periodic timer starts.
func (c *Controller) Initialize(ctx context.Context, snap *RemoteSnapshot) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return State{}, ErrAlreadyStarted
	}

	cached, hasCache := c.cache.Load(ctx, c.user.ID, c.lesson.Slug)

	st := NewState()
	source := "empty"
	switch {
	case c.user.Authenticated() && snap.HasProgress():
		source = "remote"
		for _, id := range snap.CompletedSections {
			if id >= 0 && id < len(c.sections) {
				st.Completed[id] = true
			}
		}
		// An explicit list naming no known section says nothing; use the
		// stored percent instead.
		if len(st.Completed) == 0 {
			for id := 0; id < EstimateCompleted(snap.Percent, len(c.sections)); id++ {
				st.Completed[id] = true
			}
		}
		st.TimeSpent = snap.TimeSpent
		if hasCache {
			// Partial credit is only ever held locally.
			for id, f := range cached.Partial {
				if !st.Completed[id] {
					st.Partial[id] = f
				}
			}
			if cached.TimeSpent > st.TimeSpent {
				st.TimeSpent = cached.TimeSpent
			}
		}
	case hasCache:
		source = "cache"
		st = cached
	}
	st.retain(len(c.sections))
	if hasCache {
		st.Revision = cached.Revision
	}

	pct, err := ComputePercent(c.sections, st)
	if err != nil {
		return State{}, err
	}
	st.Percent = pct
	st.Revision++

	c.state = st
	c.initialized = true
	c.cache.Save(ctx, c.user.ID, c.lesson.Slug, st.Clone())
	c.timer = c.clock.EverySecond(func() { c.Tick(1) })

	c.log.Info().
		Str("source", source).
		Int("percent", st.Percent).
		Int("completed", len(st.Completed)).
		Msg("progress initialized")

	return st.Clone(), nil
}

// MarkSectionComplete marks id done. Marking a section twice changes
// nothing. The new state is saved locally before a remote sync is queued.
func (c *Controller) MarkSectionComplete(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	if id < 0 || id >= len(c.sections) {
		return ErrUnknownSection
	}
	if c.state.Completed[id] {
		return nil
	}

	c.state.Completed[id] = true
	delete(c.state.Partial, id)
	if err := c.publishLocked(true); err != nil {
		return err
	}
	c.log.Debug().Int("section", id).Int("percent", c.state.Percent).Msg("section completed")
	return nil
}

// UpdatePartialCredit records a watch or scroll fraction for a video or
// content section. The fraction is clamped to [0,1]; values not above the
// stored one are ignored; a full fraction completes the section.
func (c *Controller) UpdatePartialCredit(id int, fraction float64) error {
	c.mu.Lock()

	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if !c.initialized {
		c.mu.Unlock()
		return ErrNotInitialized
	}
	if id < 0 || id >= len(c.sections) {
		c.mu.Unlock()
		return ErrUnknownSection
	}
	if !c.sections[id].Kind.SupportsPartialCredit() {
		c.mu.Unlock()
		return ErrNoPartialCredit
	}
	if math.IsNaN(fraction) || c.state.Completed[id] {
		c.mu.Unlock()
		return nil
	}

	fraction = clamp01(fraction)
	if fraction <= c.state.Partial[id] {
		c.mu.Unlock()
		return nil
	}
	if fraction >= 1 {
		c.mu.Unlock()
		return c.MarkSectionComplete(id)
	}

	defer c.mu.Unlock()
	c.state.Partial[id] = fraction
	return c.publishLocked(false)
}

// Tick adds delta seconds of time on the lesson. Every sync interval, if
// any progress exists, the state is saved and pushed.
func (c *Controller) Tick(delta int) {
	if delta <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized || c.closed {
		return
	}
	c.state.TimeSpent += delta
	c.sinceSync += delta
	if c.sinceSync < c.interval {
		return
	}
	c.sinceSync = 0
	if c.state.Percent > 0 {
		if err := c.publishLocked(true); err != nil {
			c.log.Error().Err(err).Msg("periodic progress save")
		}
	}
}

// publishLocked recomputes the percent, bumps the revision, writes the
// cache and, when remote is set, queues a sync. Caller holds c.mu.
func (c *Controller) publishLocked(remote bool) error {
	pct, err := ComputePercent(c.sections, c.state)
	if err != nil {
		return err
	}
	if pct > c.state.Percent {
		c.state.Percent = pct
	}
	c.state.Revision++

	snap := c.state.Clone()
	c.cache.Save(context.Background(), c.user.ID, c.lesson.Slug, snap)

	if remote && c.sync != nil && c.user.Authenticated() {
		c.sync.enqueue(ProgressUpdate{
			LessonID:          c.lesson.ID,
			LessonSlug:        c.lesson.Slug,
			Percent:           snap.Percent,
			CompletedSections: snap.CompletedIDs(),
			TimeSpent:         snap.TimeSpent,
			Revision:          snap.Revision,
		})
	}
	return nil
}

// Active returns the id of the section in view.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetActive moves the view to id without completing anything.
func (c *Controller) SetActive(id int) error {
	if id < 0 || id >= len(c.sections) {
		return ErrUnknownSection
	}
	c.mu.Lock()
	c.active = id
	c.mu.Unlock()
	return nil
}

// NextSection moves forward one section and marks the section being left
// complete. The quiz section is only completed by passing the quiz.
// Returns the new active id.
func (c *Controller) NextSection() (int, error) {
	c.mu.Lock()
	leaving := c.active
	if leaving >= len(c.sections)-1 {
		c.mu.Unlock()
		return leaving, nil
	}
	c.active = leaving + 1
	next := c.active
	c.mu.Unlock()

	if c.sections[leaving].Kind == lesson.KindQuiz {
		return next, nil
	}
	return next, c.MarkSectionComplete(leaving)
}

// PreviousSection moves back one section.
func (c *Controller) PreviousSection() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active > 0 {
		c.active--
	}
	return c.active
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Sections returns the lesson's sections.
func (c *Controller) Sections() []lesson.Section {
	return c.sections
}

// Lesson returns the lesson being tracked.
func (c *Controller) Lesson() lesson.Lesson {
	return c.lesson
}

// Close stops the periodic timer, saves the final state locally and waits
// for the pending remote sync until ctx ends. Later calls do nothing.
func (c *Controller) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
	}
	if c.initialized {
		c.cache.Save(ctx, c.user.ID, c.lesson.Slug, c.state.Clone())
	}
	c.mu.Unlock()

	if c.sync != nil {
		return c.sync.close(ctx)
	}
	return nil
}
