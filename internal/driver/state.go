package driver

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/neuroair-core/internal/device"
	"github.com/nerrad567/neuroair-core/internal/infrastructure/mqtt"
)

// StateMessage is the retained payload on the state topic.
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	PoweredOn bool      `json:"powered_on"`
	Profile   string    `json:"active_profile"`
	Intensity int       `json:"intensity"`
	Timestamp time.Time `json:"timestamp"`
}

// StatePublisher publishes the latest state of each device as a retained
// MQTT message. StateChanged only records the state; Run does the I/O.
type StatePublisher struct {
	pub    Publisher
	logger Logger
	now    func() time.Time

	mu      sync.Mutex
	pending map[string]device.State
	wake    chan struct{}
}

// NewStatePublisher creates a publisher. Call Run to start publishing.
func NewStatePublisher(pub Publisher) *StatePublisher {
	return &StatePublisher{
		pub:     pub,
		logger:  noopLogger{},
		now:     time.Now,
		pending: make(map[string]device.State),
		wake:    make(chan struct{}, 1),
	}
}

// SetLogger sets the logger used for publish failures.
func (p *StatePublisher) SetLogger(logger Logger) {
	p.logger = logger
}

// StateChanged implements device.Observer. Older unpublished states for
// the same device are replaced.
func (p *StatePublisher) StateChanged(deviceID string, state device.State) {
	p.mu.Lock()
	p.pending[deviceID] = state
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run publishes pending states until ctx is cancelled, then flushes what
// is left.
func (p *StatePublisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return
		case <-p.wake:
			p.flush()
		}
	}
}

func (p *StatePublisher) flush() {
	p.mu.Lock()
	batch := p.pending
	p.pending = make(map[string]device.State, len(batch))
	p.mu.Unlock()

	for deviceID, state := range batch {
		msg := StateMessage{
			DeviceID:  deviceID,
			PoweredOn: state.PoweredOn,
			Profile:   state.ActiveProfile,
			Intensity: state.Intensity,
			Timestamp: p.now().UTC(),
		}
		if err := p.pub.PublishJSON(mqtt.Topics{}.State(deviceID), msg, true); err != nil {
			p.logger.Warn("publishing device state failed", "device_id", deviceID, "error", err)
		}
	}
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

var _ device.Observer = (*StatePublisher)(nil)
