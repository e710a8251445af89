package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/torus-coding/internal/phi"
	"github.com/talgya/torus-coding/internal/torus"
	"github.com/talgya/torus-coding/internal/words"
)

// maxEvents bounds the in-memory event log.
const maxEvents = 1000

// Event categories.
const (
	CategoryCrossing = "crossing"
	CategoryCycle    = "cycle"
	CategoryControl  = "control"
)

// Event is a notable occurrence during a run.
type Event struct {
	Tick        uint64 `json:"tick" db:"tick"`
	Category    string `json:"category" db:"category"`
	Description string `json:"description" db:"description"`
}

// Snapshot is a consistent copy of everything a host may observe.
type Snapshot struct {
	RunID          string         `json:"run_id,omitempty"`
	Tick           uint64         `json:"tick"`
	Running        bool           `json:"running"`
	StartedAt      time.Time      `json:"started_at"`
	Config         torus.Config   `json:"config"`
	T              float64        `json:"t"`
	Theta1         float64        `json:"theta1"`
	Theta2         float64        `json:"theta2"`
	CompletedCycle bool           `json:"completed_cycle"`
	Period         float64        `json:"period,omitempty"` // Rational mode only
	Sequence       string         `json:"sequence"`
	Trace          []torus.Sample `json:"trace"`
	WordLength     int            `json:"word_length"`
	Words          []string       `json:"words"`
	WordCount      int            `json:"word_count"`
}

// Simulation owns the configuration and every piece of run state. All
// methods are safe for concurrent use; one mutex serialises them.
type Simulation struct {
	mu sync.Mutex

	cfg     torus.Config
	state   torus.State
	seq     torus.Sequence
	trace   torus.TraceBuffer
	words   *words.Analyzer
	running bool
	tick    uint64
	started time.Time
	runID   string // Assigned on first start after a reset

	events []Event
	subs   map[int]chan Event
	nextID int

	// OnStop receives the final snapshot whenever a running run stops,
	// either by command or because the cycle completed. It is called
	// without the lock held.
	OnStop func(Snapshot)
}

// NewSimulation creates a stopped simulation with the given configuration.
// Invalid fields fall back to defaults.
func NewSimulation(cfg torus.Config) *Simulation {
	def := torus.DefaultConfig()
	if !torus.ValidSlope(cfg.Tangent) {
		cfg.Tangent = def.Tangent
	}
	if !torus.ValidRatio(cfg.RatioP, cfg.RatioQ) {
		cfg.RatioP, cfg.RatioQ = def.RatioP, def.RatioQ
	}
	if !torus.ValidSpeed(cfg.StepRate) {
		cfg.StepRate = def.StepRate
	}
	if cfg.NWordLength < 1 {
		cfg.NWordLength = def.NWordLength
	}

	return &Simulation{
		cfg:   cfg,
		words: words.NewAnalyzer(cfg.NWordLength),
		subs:  make(map[int]chan Event),
	}
}

// Tick advances one frame. It is a no-op when stopped.
func (s *Simulation) Tick() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}

	s.tick++
	before := s.seq.Len()
	res := torus.Advance(s.cfg, &s.state, &s.seq, &s.trace)

	if s.seq.Len() > before {
		s.words.Extend(s.seq.Bytes())
		for _, sym := range s.seq.Bytes()[before:] {
			s.emit(CategoryCrossing, crossingDescription(torus.Symbol(sym)))
		}
	}

	var final *Snapshot
	if res.Completed {
		s.running = false
		s.emit(CategoryCycle, fmt.Sprintf("cycle complete at t=%.6f (%d symbols)", s.state.T, s.seq.Len()))
		slog.Info("cycle complete",
			"ratio", s.cfg.RatioString(),
			"t", s.state.T,
			"symbols", s.seq.Len(),
			"words", s.words.Count(),
		)
		snap := s.snapshotLocked()
		final = &snap
	}
	s.mu.Unlock()

	if final != nil && s.OnStop != nil {
		s.OnStop(*final)
	}
}

func crossingDescription(sym torus.Symbol) string {
	if sym == torus.MinorCrossing {
		return "1 minor circle crossing"
	}
	return "0 major circle crossing"
}

// Start begins or resumes the run.
func (s *Simulation) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	if s.runID == "" {
		s.runID = uuid.NewString()
		s.started = time.Now()
	}
	s.emit(CategoryControl, "started")
	slog.Info("run started", "run_id", s.runID, "slope", s.cfg.EffectiveSlope(), "use_ratio", s.cfg.UseRatio, "step_rate", s.cfg.StepRate)
}

// Stop pauses the run. The next Tick is a no-op.
func (s *Simulation) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.emit(CategoryControl, "stopped")
	slog.Info("run stopped", "t", s.state.T, "symbols", s.seq.Len())
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.OnStop != nil {
		s.OnStop(snap)
	}
}

// Reset stops the run and discards all run state. Configuration is kept.
func (s *Simulation) Reset() {
	s.mu.Lock()
	var final *Snapshot
	if s.running {
		s.running = false
		s.emit(CategoryControl, "stopped")
		snap := s.snapshotLocked()
		final = &snap
	}

	s.state = torus.State{}
	s.seq.Reset()
	s.trace.Reset()
	s.words.Reset()
	s.tick = 0
	s.started = time.Time{}
	s.runID = ""
	s.emit(CategoryControl, "reset")
	slog.Info("run reset")
	s.mu.Unlock()

	if final != nil && s.OnStop != nil {
		s.OnStop(*final)
	}
}

// SetMode switches between rational and irrational slope. Rejected while running.
func (s *Simulation) SetMode(useRatio bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Debug("mode change rejected while running")
		return false
	}
	s.cfg.UseRatio = useRatio
	return true
}

// SetTangent sets the irrational-mode slope. Rejected while running or when
// v is not a positive finite number.
func (s *Simulation) SetTangent(v float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || !torus.ValidSlope(v) {
		slog.Debug("tangent rejected", "value", v, "running", s.running)
		return false
	}
	s.cfg.Tangent = v
	return true
}

// SetPreset applies a named slope preset as the tangent.
func (s *Simulation) SetPreset(name string) bool {
	p, ok := phi.Lookup(name)
	if !ok {
		slog.Debug("unknown preset", "name", name)
		return false
	}
	return s.SetTangent(p.Value)
}

// SetRatio sets the rational-mode slope p/q. Rejected while running or when
// either value is not positive.
func (s *Simulation) SetRatio(p, q int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running || !torus.ValidRatio(p, q) {
		slog.Debug("ratio rejected", "p", p, "q", q, "running", s.running)
		return false
	}
	s.cfg.RatioP = p
	s.cfg.RatioQ = q
	return true
}

// SetSpeed sets the step rate. Allowed while running.
func (s *Simulation) SetSpeed(v float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !torus.ValidSpeed(v) {
		slog.Debug("speed rejected", "value", v)
		return false
	}
	s.cfg.StepRate = v
	return true
}

// SetTraceVisibility toggles the display flag.
func (s *Simulation) SetTraceVisibility(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.ShowTrace = show
}

// SetNWordLength changes the factor length, clears the word set and rescans
// the current sequence.
func (s *Simulation) SetNWordLength(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 {
		slog.Debug("n-word length rejected", "value", n)
		return false
	}
	s.cfg.NWordLength = n
	s.words.SetLength(n)
	s.words.Extend(s.seq.Bytes())
	return true
}

// Config returns the current configuration.
func (s *Simulation) Config() torus.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Running reports whether the run is active.
func (s *Simulation) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Snapshot returns a copy of all observables.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	angles := s.state.Angles(s.cfg.EffectiveSlope())
	snap := Snapshot{
		RunID:          s.runID,
		Tick:           s.tick,
		Running:        s.running,
		StartedAt:      s.started,
		Config:         s.cfg,
		T:              s.state.T,
		Theta1:         angles.Theta1,
		Theta2:         angles.Theta2,
		CompletedCycle: s.state.CompletedCycle,
		Sequence:       s.seq.String(),
		Trace:          s.trace.Points(),
		WordLength:     s.words.Length(),
		Words:          s.words.Sorted(),
		WordCount:      s.words.Count(),
	}
	if d := torus.NewCycleDetector(s.cfg); d.Enabled() {
		snap.Period = d.Period()
	}
	return snap
}

// Events returns a copy of the most recent events, oldest first.
func (s *Simulation) Events(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if limit > 0 && len(s.events) > limit {
		start = len(s.events) - limit
	}
	out := make([]Event, len(s.events)-start)
	copy(out, s.events[start:])
	return out
}

// Subscribe registers a listener for new events. Slow listeners miss events
// rather than blocking the tick.
func (s *Simulation) Subscribe() (int, <-chan Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	ch := make(chan Event, 256)
	s.subs[s.nextID] = ch
	return s.nextID, ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *Simulation) Unsubscribe(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *Simulation) emit(category, desc string) {
	e := Event{Tick: s.tick, Category: category, Description: desc}
	s.events = append(s.events, e)
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
