package placement

import (
	"context"
	"fmt"
	"image"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/params"
)

// Canvas is the drawing collaborator. PlaceLabel draws the background
// rectangle and the text of one instruction and merges them.
type Canvas interface {
	Measurer
	PlaceLabel(ins Instruction) error
}

// Record is one placed label handed to a Recorder.
type Record struct {
	RunID     string
	Source    string
	Number    int
	Label     string
	X, Y      float64
	PlacedAt  time.Time
	LayerName string

	// Rect is the label's background rectangle in image coordinates.
	Rect image.Rectangle
}

// Recorder keeps a history of placed labels.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// DriverConfig wires a Driver to its collaborators. Store and Canvas are
// required.
type DriverConfig struct {
	Store  *params.Store
	Canvas Canvas

	// Logger receives the run's debug trail. Defaults to discarding.
	Logger *log.Logger

	// Recorder, when set, is told about every placed label. Recording
	// failures are logged and do not stop the run.
	Recorder Recorder
}

// Driver places labels for one path at a time.
type Driver struct {
	store    *params.Store
	canvas   Canvas
	logger   *log.Logger
	recorder Recorder
	now      func() time.Time
}

// NewDriver creates a Driver from cfg.
func NewDriver(cfg DriverConfig) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Driver{
		store:    cfg.Store,
		canvas:   cfg.Canvas,
		logger:   logger,
		recorder: cfg.Recorder,
		now:      time.Now,
	}
}

// Result summarizes a run.
type Result struct {
	RunID string `json:"run_id"`

	Placed      int `json:"labels_placed"`
	StartNumber int `json:"start_number"`
	NextNumber  int `json:"next_number"`

	Labels []Instruction `json:"labels"`

	// Messages are the user-facing notifications of the run, in order.
	Messages []string `json:"messages"`

	// ConfigStatus tells where the parameters came from (loaded, created,
	// defaults).
	ConfigStatus string `json:"config_status"`
}

func (r *Result) notify(format string, args ...interface{}) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// Run labels every anchor of path in traversal order.
//
// The returned Result is never nil. On a *ValidationError nothing was
// drawn or persisted. On a *DrawingError the labels drawn before the
// failure remain and the saved start number is still advanced past
// them. A run that skipped the save on failure would hand out numbers
// that are already on the image.
func (d *Driver) Run(ctx context.Context, path *anchor.Path, opts Options) (*Result, error) {
	res := &Result{RunID: uuid.NewString(), Labels: []Instruction{}}

	if path == nil {
		d.logger.Printf("Error: Input path is invalid.")
		res.notify("Error: Input path is invalid.")
		return res, &ValidationError{Reason: "no path supplied"}
	}
	if err := opts.Validate(); err != nil {
		d.logger.Printf("Error: %v", err)
		res.notify("Error: %v", err)
		return res, &ValidationError{Reason: err.Error()}
	}

	cfg, status, err := d.store.Load()
	res.ConfigStatus = status.String()
	if err != nil {
		d.logger.Printf("Using default parameters: %v", err)
	}

	start, cfg := d.resolveStart(cfg, opts, res)
	d.logger.Printf("Using start number: %d", start)
	cfg = d.applyOverrides(cfg, opts)

	d.logger.Printf("Starting run %s with parameters: museum_code=%s, collection_code=%s, font=%s, fontSize=%d, start_number=%d",
		res.RunID, cfg.MuseumCode, cfg.CollectionCode, cfg.Font, cfg.FontSize, start)

	anchors := path.Anchors()
	d.logger.Printf("Number of anchors found: %d", len(anchors))

	res.StartNumber = start
	var drawErr *DrawingError
	for i, at := range anchors {
		number := start + i
		ins, err := PlanLabel(i, number, at, cfg, opts, d.canvas)
		if err == nil {
			d.logger.Printf("Creating label: %s", ins.Text)
			err = d.canvas.PlaceLabel(ins)
		}
		if err != nil {
			drawErr = &DrawingError{Index: i, Placed: res.Placed, Err: err}
			break
		}
		d.logger.Printf("Layers merged: %s at (%d, %d)", ins.LayerName, int(at.X), int(at.Y))

		res.Placed++
		res.Labels = append(res.Labels, ins)
		d.record(ctx, res.RunID, opts.Source, ins)
	}

	res.NextNumber = start + res.Placed
	if _, err := d.store.UpdateInt(cfg, params.KeyStartNumber, res.NextNumber); err != nil {
		d.logger.Printf("Error saving parameters: %v", err)
	} else {
		d.logger.Printf("Parameters saved at end of execution. Next start number: %d", res.NextNumber)
	}

	if drawErr != nil {
		d.logger.Printf("Error in label placement: %v", drawErr)
		res.notify("Error in label placement: %v", drawErr)
		return res, drawErr
	}

	d.logger.Printf("Label placement completed")
	res.notify("Label placement completed: %d labels placed, next number %d", res.Placed, res.NextNumber)
	return res, nil
}

// resolveStart picks the first number of the run and persists a
// user-provided one.
func (d *Driver) resolveStart(cfg params.Config, opts Options, res *Result) (int, params.Config) {
	if opts.UseSavedNumber {
		res.notify("Using saved start number: %d", cfg.StartNumber)
		return cfg.StartNumber, cfg
	}

	n, ok := parseStartNumber(opts.StartNumber)
	if !ok {
		res.notify("Using saved start number: %d (since no number was provided)", cfg.StartNumber)
		return cfg.StartNumber, cfg
	}

	cfg, err := d.store.UpdateInt(cfg, params.KeyStartNumber, n)
	if err != nil {
		d.logger.Printf("Error saving parameters: %v", err)
	}
	res.notify("Using user-provided start number: %d", n)
	return n, cfg
}

// applyOverrides persists each override, one key at a time.
func (d *Driver) applyOverrides(cfg params.Config, opts Options) params.Config {
	for _, o := range opts.Overrides() {
		next, err := d.store.Update(cfg, o.Key, o.Value)
		if err != nil {
			d.logger.Printf("Error saving parameter %s: %v", o.Key, err)
		}
		cfg = next
	}
	return cfg
}

func (d *Driver) record(ctx context.Context, runID, source string, ins Instruction) {
	if d.recorder == nil {
		return
	}
	rec := Record{
		RunID:     runID,
		Source:    source,
		Number:    ins.Number,
		Label:     ins.Text,
		X:         ins.Anchor.X,
		Y:         ins.Anchor.Y,
		PlacedAt:  d.now(),
		LayerName: ins.LayerName,
		Rect:      ins.Rect,
	}
	if err := d.recorder.Record(ctx, rec); err != nil {
		d.logger.Printf("Error recording label %s: %v", ins.Text, err)
	}
}
