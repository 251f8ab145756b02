package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/torosent/msgsampler/internal/logging"
)

// DefaultInterval is the rollover cadence used by DefaultOptions.
const DefaultInterval = time.Second

// Callback receives the latency and throughput snapshots of each closed
// window. It runs on the sampler's ticker goroutine with no lock held and
// must not call Stop.
type Callback func(latency, throughput Snapshot)

// Options configure a Sampler.
type Options struct {
	Interval time.Duration    // window length; must be positive
	Unit     Unit             // timestamp unit of AddMessage (default milliseconds)
	Callback Callback         // rollover receiver; nil prints JSON to Output
	Output   io.Writer        // destination when Callback is nil (default os.Stdout)
	Logger   logging.Logger   // default discards
	Clock    func() time.Time // wall clock for window boundaries (default time.Now)
}

// DefaultOptions returns a one second window over millisecond timestamps
// printing to standard output.
func DefaultOptions() Options {
	return Options{
		Interval: DefaultInterval,
		Unit:     UnitMilliseconds,
		Output:   os.Stdout,
	}
}

// State is the lifecycle position of a Sampler.
type State int32

const (
	StateIdle State = iota
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Sampler aggregates message latency and throughput into a cumulative summary
// and a rolling window that is closed and reset every Interval.
//
// The ticker starts with the first AddMessage. Stop halts it for good; later
// messages still update both summaries but windows only close through
// Rollover.
type Sampler struct {
	interval time.Duration
	unit     Unit
	callback Callback
	out      io.Writer
	logger   logging.Logger
	now      func() time.Time
	runID    string

	// initMu guards the lifecycle fields below; state is also read atomically
	// on the AddMessage fast path.
	initMu   sync.Mutex
	state    atomic.Int32
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}

	cumMu      sync.Mutex
	cumulative *window

	winMu   sync.Mutex
	current *window
}

// New validates opts and returns an idle Sampler.
func New(opts Options) (*Sampler, error) {
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, opts.Interval)
	}
	if opts.Unit == "" {
		opts.Unit = UnitMilliseconds
	}
	if !opts.Unit.valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUnit, opts.Unit)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Sampler{
		interval:   opts.Interval,
		unit:       opts.Unit,
		callback:   opts.Callback,
		out:        opts.Output,
		logger:     opts.Logger,
		now:        opts.Clock,
		runID:      ulid.Make().String(),
		cumulative: newWindow(time.Time{}),
		current:    newWindow(time.Time{}),
	}, nil
}

// RunID identifies this sampler instance on every snapshot it produces.
func (s *Sampler) RunID() string { return s.runID }

// Interval returns the configured window length.
func (s *Sampler) Interval() time.Duration { return s.interval }

// Unit returns the timestamp unit AddMessage expects.
func (s *Sampler) Unit() Unit { return s.unit }

// State reports the current lifecycle state.
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// AddMessage records one message. sent and received are timestamps in the
// sampler's Unit. received before sent is recorded as negative latency.
func (s *Sampler) AddMessage(sent, received int64) {
	if s.State() == StateIdle {
		s.start()
	}

	s.cumMu.Lock()
	s.cumulative.add(sent, received, s.unit)
	s.cumMu.Unlock()

	s.winMu.Lock()
	s.current.add(sent, received, s.unit)
	s.winMu.Unlock()
}

func (s *Sampler) start() {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.State() != StateIdle {
		return
	}

	now := s.now()
	s.cumMu.Lock()
	s.cumulative.start = now
	s.cumMu.Unlock()

	s.winMu.Lock()
	s.current.start = now
	s.winMu.Unlock()

	s.ticker = time.NewTicker(s.interval)
	s.done = make(chan struct{})
	s.finished = make(chan struct{})
	s.state.Store(int32(StateActive))

	go s.run(s.ticker.C, s.done, s.finished)
	s.logger.Debugf("sampler %s: started with %s windows", s.runID, s.interval)
}

func (s *Sampler) run(ticks <-chan time.Time, done <-chan struct{}, finished chan<- struct{}) {
	defer close(finished)
	for {
		select {
		case <-ticks:
			select {
			case <-done:
				return
			default:
			}
			latency, throughput := s.Rollover()
			s.emit(latency, throughput)
		case <-done:
			return
		}
	}
}

// Stop halts the ticker and waits for an in-flight rollover to finish.
// Stopping an idle sampler returns ErrNotStarted and leaves it idle;
// stopping twice is a no-op.
func (s *Sampler) Stop() error {
	s.initMu.Lock()
	switch s.State() {
	case StateIdle:
		s.initMu.Unlock()
		return ErrNotStarted
	case StateStopped:
		s.initMu.Unlock()
		return nil
	}

	s.state.Store(int32(StateStopped))
	s.ticker.Stop()
	close(s.done)
	finished := s.finished
	s.initMu.Unlock()

	<-finished
	s.logger.Debugf("sampler %s: stopped", s.runID)
	return nil
}

// Snapshot copies the requested summary. For KindWindow the window stays
// open; End is the current time.
func (s *Sampler) Snapshot(kind Kind) (latency, throughput Snapshot) {
	if kind == KindCumulative {
		s.cumMu.Lock()
		defer s.cumMu.Unlock()
		return s.capture(s.cumulative, KindCumulative, s.now())
	}

	s.winMu.Lock()
	defer s.winMu.Unlock()
	return s.capture(s.current, KindWindow, s.now())
}

// Rollover closes the current window at the current time and starts the next
// one where it ended. The ticker calls it every Interval; after Stop callers
// may call it themselves. It does not invoke the Callback.
func (s *Sampler) Rollover() (latency, throughput Snapshot) {
	s.winMu.Lock()
	defer s.winMu.Unlock()

	end := s.now()
	latency, throughput = s.capture(s.current, KindWindow, end)
	s.current.reset(end)
	return latency, throughput
}

func (s *Sampler) capture(w *window, kind Kind, end time.Time) (latency, throughput Snapshot) {
	latency = newSnapshot(s.runID, NameLatency, kind, string(s.unit), w.start, end, w.latency, 0)
	throughput = newSnapshot(s.runID, NameThroughput, kind, UnitMessagesPerSecond, w.start, end, w.throughput, w.undefined)
	return latency, throughput
}

func (s *Sampler) emit(latency, throughput Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Errorf("sampler %s: rollover callback panicked: %v", s.runID, r)
		}
	}()

	if s.callback != nil {
		s.callback(latency, throughput)
		return
	}
	if err := WriteJSON(s.out, latency, throughput); err != nil {
		s.logger.Warnf("sampler %s: print window: %v", s.runID, err)
	}
}

// WriteJSON writes each snapshot as an indented JSON document.
func WriteJSON(w io.Writer, snapshots ...Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	for _, snap := range snapshots {
		if err := enc.Encode(snap); err != nil {
			return err
		}
	}
	return nil
}
