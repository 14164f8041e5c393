// Package labeler ties the parameter store, the renderer, the label
// history and OCR together into the operations offered by the MCP server
// and the command line tool.
//
// A Service owns one data directory. It is safe for use by one caller at a
// time; the MCP server handles requests sequentially.
package labeler

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/imaging"
	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/ledger"
	"github.com/ironsheep/specimen-labels/internal/ocr"
	"github.com/ironsheep/specimen-labels/internal/params"
	"github.com/ironsheep/specimen-labels/internal/placement"
	"github.com/ironsheep/specimen-labels/internal/render"
	"github.com/ironsheep/specimen-labels/internal/runlog"
)

// DefaultLanguage is the Tesseract language used by Verify.
const DefaultLanguage = "eng"

const (
	previewMargin = 20
	maxPreviews   = 10
)

// ErrNoHistory is returned by history operations when the ledger could
// not be opened or was disabled.
var ErrNoHistory = errors.New("label history is not available")

// Config selects the data directory and logging of a Service.
type Config struct {
	// DataDir is resolved with ResolveDataDir.
	DataDir string

	// Mirror, when set, receives a copy of every debug log line.
	Mirror io.Writer

	// NoHistory skips opening the ledger.
	NoHistory bool
}

// Service performs labeling operations against one data directory.
type Service struct {
	dataDir string
	store   *params.Store
	runLog  *log.Logger
	logFile io.Closer
	ledger  *ledger.Ledger
	cache   *imaging.ImageCache
	fonts   *render.FontSet

	mu     sync.Mutex
	placed map[string][]placement.Instruction
}

// Open prepares a Service. Failures to open the debug log or the ledger
// are logged and leave the Service usable without them.
func Open(cfg Config) (*Service, error) {
	dir, err := ResolveDataDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory: %w", err)
	}

	s := &Service{
		dataDir: dir,
		cache:   imaging.NewImageCache(),
		fonts:   render.NewFontSet(),
		placed:  make(map[string][]placement.Instruction),
	}

	s.runLog, s.logFile, err = runlog.Open(dir, cfg.Mirror)
	if err != nil {
		log.Printf("Debug log unavailable, using stderr: %v", err)
		s.runLog = runlog.New(os.Stderr)
	}

	s.store = params.NewStore(filepath.Join(dir, params.FileName), s.runLog)

	if !cfg.NoHistory {
		s.ledger, err = ledger.Open(filepath.Join(dir, ledger.FileName))
		if err != nil {
			log.Printf("Label history unavailable: %v", err)
			s.ledger = nil
		}
	}
	return s, nil
}

// Close releases the ledger, the debug log, cached images and fonts.
func (s *Service) Close() error {
	s.cache.Clear()
	var errs []error
	if s.ledger != nil {
		errs = append(errs, s.ledger.Close())
	}
	if s.logFile != nil {
		errs = append(errs, s.logFile.Close())
	}
	errs = append(errs, s.fonts.Close())
	return errors.Join(errs...)
}

// DataDir returns the resolved data directory.
func (s *Service) DataDir() string { return s.dataDir }

// Cache returns the image cache shared by every operation.
func (s *Service) Cache() *imaging.ImageCache { return s.cache }

// ParamsView is the saved parameters as shown to a user.
type ParamsView struct {
	Parameters params.Config `json:"parameters"`
	Status     string        `json:"status"`
	Path       string        `json:"path"`
	// SavedNumberPrompt is the label of the "use saved number" choice.
	SavedNumberPrompt string `json:"saved_number_prompt"`
	// Warning carries a read or write failure that fell back to defaults.
	Warning string `json:"warning,omitempty"`
}

func (s *Service) view(cfg params.Config, status params.LoadStatus, err error) *ParamsView {
	v := &ParamsView{
		Parameters:        cfg,
		Status:            status.String(),
		Path:              s.store.Path(),
		SavedNumberPrompt: fmt.Sprintf("Use saved start number (current: %d)", cfg.StartNumber),
	}
	if err != nil {
		v.Warning = err.Error()
	}
	return v
}

// Params loads the saved parameters. Load problems never fail the call;
// they are reported in the Warning field.
func (s *Service) Params() *ParamsView {
	cfg, status, err := s.store.Load()
	return s.view(cfg, status, err)
}

// SetParam stores one parameter. A value that does not fit the key is
// returned as *params.ValueError and nothing is written. When the saved
// file could not be read, the other keys fall back to defaults and the
// read error is reported as a warning.
func (s *Service) SetParam(key, value string) (*ParamsView, error) {
	cfg, status, loadErr := s.store.Load()
	next, err := s.store.Update(cfg, key, value)
	var ioErr *params.IOError
	if err != nil && !errors.As(err, &ioErr) {
		return nil, err
	}
	s.runLog.Printf("Parameter %s set to %s", key, value)
	// A failed write outranks the read failure that led to defaults.
	if err == nil {
		err = loadErr
	}
	return s.view(next, status, err), nil
}

// ComposeRequest describes a label to build without drawing it. Empty
// codes are taken from the saved parameters.
type ComposeRequest struct {
	Number              int            `json:"number"`
	Digits              int            `json:"digits"`
	MuseumCode          string         `json:"museum_code"`
	CollectionCode      string         `json:"collection_code"`
	CustomField         string         `json:"custom_field"`
	CustomFieldPosition label.Position `json:"custom_field_position"`
}

// ComposeResult is a composed label and its layer name.
type ComposeResult struct {
	Label     string `json:"label"`
	LayerName string `json:"layer_name"`
}

// Compose builds the text of a label.
func (s *Service) Compose(req ComposeRequest) (*ComposeResult, error) {
	if req.Digits == 0 {
		req.Digits = label.DefaultDigits
	}
	if req.Digits < label.MinDigits || req.Digits > label.MaxDigits {
		return nil, fmt.Errorf("digits must be between %d and %d, got %d", label.MinDigits, label.MaxDigits, req.Digits)
	}
	if req.Number < 0 {
		return nil, fmt.Errorf("number must not be negative, got %d", req.Number)
	}
	if req.MuseumCode == "" || req.CollectionCode == "" {
		cfg, _, _ := s.store.Load()
		if req.MuseumCode == "" {
			req.MuseumCode = cfg.MuseumCode
		}
		if req.CollectionCode == "" {
			req.CollectionCode = cfg.CollectionCode
		}
	}
	return &ComposeResult{
		Label:     label.Compose(req.Number, req.Digits, req.MuseumCode, req.CollectionCode, req.CustomField, req.CustomFieldPosition),
		LayerName: label.LayerName(req.Number, req.Digits, req.MuseumCode, req.CollectionCode),
	}, nil
}

// PlaceRequest is one labeling run over an image.
type PlaceRequest struct {
	Image string
	// Output defaults to OutputPath(Image).
	Output  string
	Path    *anchor.Path
	Options placement.Options
	Style   render.Style

	// DryRun plans the labels without saving the image, the parameters or
	// the history.
	DryRun bool
	// Preview returns a crop around each label (at most ten).
	Preview bool
}

// PlaceResult extends the run summary with what was written.
type PlaceResult struct {
	*placement.Result
	Output   string                `json:"output,omitempty"`
	DryRun   bool                  `json:"dry_run,omitempty"`
	Previews []*imaging.CropResult `json:"previews,omitempty"`
}

// Place runs the placement driver over req.Image and saves the labeled
// copy. On a *placement.DrawingError the labels placed before the failure
// are still saved and the error is returned along with the result.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	if req.Options.Source == "" {
		req.Options.Source = req.Image
	}
	img, err := s.cache.Load(req.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	canvas, err := render.NewCanvas(img, s.fonts, req.Style)
	if err != nil {
		return nil, &placement.ValidationError{Reason: err.Error()}
	}

	if req.DryRun {
		return s.dryRun(req, canvas)
	}

	// Checked before the run, which writes the counter and history.
	output := req.Output
	if output == "" {
		output = OutputPath(req.Image)
	}
	if err := render.CheckFormat(output); err != nil {
		s.runLog.Printf("Error: invalid output %s: %v", output, err)
		return nil, &placement.ValidationError{Reason: err.Error()}
	}

	driver := placement.NewDriver(placement.DriverConfig{
		Store:    s.store,
		Canvas:   canvas,
		Logger:   s.runLog,
		Recorder: s.recorder(),
	})
	res, runErr := driver.Run(ctx, req.Path, req.Options)
	out := &PlaceResult{Result: res}
	if res.Placed == 0 {
		return out, runErr
	}

	labeled := canvas.Image()
	if err := render.Save(output, labeled); err != nil {
		s.runLog.Printf("Error saving labeled image %s: %v", output, err)
		return out, err
	}
	s.runLog.Printf("Saved labeled image: %s", output)
	s.cache.Put(output, labeled)
	s.remember(output, res.Labels)

	out.Output = output
	if req.Preview {
		out.Previews = previews(labeled, res.Labels)
	}
	return out, runErr
}

func (s *Service) dryRun(req PlaceRequest, canvas *render.Canvas) (*PlaceResult, error) {
	res := &placement.Result{Labels: []placement.Instruction{}}
	out := &PlaceResult{Result: res, DryRun: true}

	if req.Path == nil {
		res.Messages = append(res.Messages, "Error: Input path is invalid.")
		return out, &placement.ValidationError{Reason: "no path supplied"}
	}
	if err := req.Options.Validate(); err != nil {
		return out, &placement.ValidationError{Reason: err.Error()}
	}

	cfg, status, _ := s.store.Load()
	res.ConfigStatus = status.String()
	cfg, start := placement.Preview(cfg, req.Options)

	labels, err := placement.Plan(req.Path.Anchors(), cfg, start, req.Options, canvas)
	if err != nil {
		return out, &placement.DrawingError{Index: len(labels), Err: err}
	}
	res.Labels = labels
	res.StartNumber = start
	res.NextNumber = start + len(labels)
	res.Messages = append(res.Messages, fmt.Sprintf("Dry run: %d labels planned starting at %d", len(labels), start))

	if req.Preview {
		for _, ins := range labels {
			if err := canvas.PlaceLabel(ins); err != nil {
				return out, &placement.DrawingError{Index: ins.Index, Err: err}
			}
		}
		out.Previews = previews(canvas.Image(), labels)
	}
	return out, nil
}

// recorder returns the ledger as a Recorder, or nil when there is none.
func (s *Service) recorder() placement.Recorder {
	if s.ledger == nil {
		return nil
	}
	return s.ledger
}

func (s *Service) remember(output string, labels []placement.Instruction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.placed[output] = labels
}

func (s *Service) lookup(output string) []placement.Instruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placed[output]
}

func previews(img image.Image, labels []placement.Instruction) []*imaging.CropResult {
	out := make([]*imaging.CropResult, 0, min(len(labels), maxPreviews))
	for _, ins := range labels {
		if len(out) == maxPreviews {
			break
		}
		crop, err := imaging.CropAround(img, ins.Rect, previewMargin, 1.0)
		if err != nil {
			continue
		}
		out = append(out, crop)
	}
	return out
}

// VerifyRequest selects a labeled image and the labels to read back.
// Labels are taken, in order of preference, from Labels, from the last
// run that wrote Image in this process, or from the history of RunID.
type VerifyRequest struct {
	Image    string
	Labels   []placement.Instruction
	RunID    string
	Language string
}

// Verify reads the labels back from the image with OCR.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*ocr.VerifyResult, error) {
	labels := req.Labels
	if len(labels) == 0 {
		labels = s.lookup(req.Image)
	}
	if len(labels) == 0 && req.RunID != "" {
		var err error
		labels, err = s.labelsFromHistory(ctx, req.RunID)
		if err != nil {
			return nil, err
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels known for %s; pass labels or a run id", req.Image)
	}

	lang := req.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	img, err := s.cache.Load(req.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	res := ocr.VerifyLabels(img, labels, lang)
	s.runLog.Printf("Verified %s: %d of %d labels matched", req.Image, res.Matched, res.Checked)
	return res, nil
}

func (s *Service) labelsFromHistory(ctx context.Context, runID string) ([]placement.Instruction, error) {
	entries, err := s.History(ctx, ledger.Query{RunID: runID, Limit: 10000})
	if err != nil {
		return nil, err
	}
	labels := make([]placement.Instruction, 0, len(entries))
	// History is newest first; verification reports in placement order.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		labels = append(labels, placement.Instruction{
			Number:    e.Number,
			Text:      e.Label,
			LayerName: e.LayerName,
			Anchor:    anchor.Point{X: e.X, Y: e.Y},
			Rect:      e.Rect,
		})
	}
	return labels, nil
}

// History lists placed labels.
func (s *Service) History(ctx context.Context, q ledger.Query) ([]ledger.Entry, error) {
	if s.ledger == nil {
		return nil, ErrNoHistory
	}
	return s.ledger.List(ctx, q)
}

// Gaps lists sequence numbers missing from the history.
func (s *Service) Gaps(ctx context.Context) ([]ledger.Gap, error) {
	if s.ledger == nil {
		return nil, ErrNoHistory
	}
	return s.ledger.Gaps(ctx)
}
