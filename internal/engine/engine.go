package engine

import (
	"io"
	"log/slog"

	"github.com/roach88/vats/internal/device"
)

// Engine owns the device collection and applies lifecycle operations to it.
//
// Thread-safety: none. The engine is driven by a single operator session;
// callers must not share an Engine across goroutines.
type Engine struct {
	devices []device.Device
	config  Config
	ranker  *Ranker
	clock   Clock
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used for LastUsed.
//
// Default: SystemClock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger for mutation events.
//
// Default: a logger that discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over a copy of devices.
func New(devices []device.Device, cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		devices: device.CloneAll(devices),
		config:  cfg,
		ranker:  NewRanker(cfg),
		clock:   SystemClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if e.devices == nil {
		e.devices = []device.Device{}
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Devices returns a copy of the collection in its stored order.
func (e *Engine) Devices() []device.Device {
	return device.CloneAll(e.devices)
}

// Device returns a copy of the device with the given id.
func (e *Engine) Device(id string) (device.Device, error) {
	i := e.indexOf(id)
	if i < 0 {
		return device.Device{}, device.NewNotFoundError(id)
	}
	return e.devices[i].Clone(), nil
}

// indexOf finds a device by id after trimming and NFC normalization, the
// same canonical form Add, Edit and the store apply to stored ids.
func (e *Engine) indexOf(id string) int {
	return device.IndexOf(e.devices, device.NormalizeKey(id))
}

// Config returns the ranking configuration.
func (e *Engine) Config() Config {
	return e.config
}

// UsedAccounts returns the accounts currently backing an in-use device.
func (e *Engine) UsedAccounts() AccountSet {
	return UsedAccounts(e.devices)
}

// Status classifies the device with the given id.
func (e *Engine) Status(id string) (device.Status, error) {
	i := e.indexOf(id)
	if i < 0 {
		return 0, device.NewNotFoundError(id)
	}
	return StatusOf(e.devices[i], e.UsedAccounts()), nil
}

// Filter returns the display view of the collection.
func (e *Engine) Filter(hideBlocked bool) []device.Device {
	return Filter(e.devices, hideBlocked)
}

// Suggest ranks the full, unfiltered collection.
func (e *Engine) Suggest() (device.Device, bool) {
	return e.ranker.Suggest(e.devices)
}

// Row is one line of a presentation listing. Selections must be mapped back
// through ID, never through the row's position.
type Row struct {
	Device         device.Device
	Status         device.Status
	Priority       int
	CustomPriority bool
	Suggested      bool
}

// Rows projects the filtered view with everything a listing needs.
func (e *Engine) Rows(hideBlocked bool) []Row {
	used := e.UsedAccounts()
	suggested, ok := e.Suggest()

	view := e.Filter(hideBlocked)
	rows := make([]Row, 0, len(view))
	for _, d := range view {
		p, custom := e.config.EffectivePriority(d)
		rows = append(rows, Row{
			Device:         d,
			Status:         StatusOf(d, used),
			Priority:       p,
			CustomPriority: custom,
			Suggested:      ok && d.ID == suggested.ID,
		})
	}
	return rows
}
