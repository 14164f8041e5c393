package server

import (
	"context"
	"encoding/json"
	"fmt"
	"image"

	"github.com/ironsheep/specimen-labels/internal/anchor"
	"github.com/ironsheep/specimen-labels/internal/imaging"
	"github.com/ironsheep/specimen-labels/internal/label"
	"github.com/ironsheep/specimen-labels/internal/labeler"
	"github.com/ironsheep/specimen-labels/internal/ledger"
	"github.com/ironsheep/specimen-labels/internal/placement"
	"github.com/ironsheep/specimen-labels/internal/render"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "label_place", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// When a labeling run fails part way, the run summary is attached as the
// error data so the client still learns which labels were placed.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		if run, ok := result.(*labeler.PlaceResult); ok && run != nil {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", mustMarshalJSON(toolFailure{
				Error:  err.Error(),
				Result: run,
			}))
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

type toolFailure struct {
	Error  string               `json:"error"`
	Result *labeler.PlaceResult `json:"result"`
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the labeler service or the imaging package
//  4. Returns the result or error
//
// label_place may return both a result and an error when the run failed
// after placing some labels.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Parameters
	case "label_params_get":
		return s.svc.Params(), nil
	case "label_params_set":
		return s.handleParamsSet(args)

	// Labels
	case "label_compose":
		return s.handleCompose(args)
	case "label_extract_anchors":
		return s.handleExtractAnchors(args)
	case "label_place":
		return s.handlePlace(ctx, args)
	case "label_verify":
		return s.handleVerify(ctx, args)
	case "label_history":
		return s.handleHistory(ctx, args)

	// Images
	case "image_load":
		return s.handleImageLoad(args)
	case "image_crop":
		return s.handleImageCrop(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Parameter Handlers ===

type paramsSetArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (s *Server) handleParamsSet(args json.RawMessage) (interface{}, error) {
	var a paramsSetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	return s.svc.SetParam(a.Key, a.Value)
}

// === Label Handlers ===

type labelFormatArgs struct {
	MuseumCode          string `json:"museum_code"`
	CollectionCode      string `json:"collection_code"`
	Digits              int    `json:"digits"`
	CustomField         string `json:"custom_field"`
	CustomFieldPosition string `json:"custom_field_position"`
}

func (a labelFormatArgs) position() (label.Position, error) {
	if a.CustomFieldPosition == "" {
		return label.DefaultPosition, nil
	}
	return label.ParsePosition(a.CustomFieldPosition)
}

type composeArgs struct {
	labelFormatArgs
	Number int `json:"number"`
}

func (s *Server) handleCompose(args json.RawMessage) (interface{}, error) {
	var a composeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	pos, err := a.position()
	if err != nil {
		return nil, err
	}
	return s.svc.Compose(labeler.ComposeRequest{
		Number:              a.Number,
		Digits:              a.Digits,
		MuseumCode:          a.MuseumCode,
		CollectionCode:      a.CollectionCode,
		CustomField:         a.CustomField,
		CustomFieldPosition: pos,
	})
}

type pathArgs struct {
	SVGPath string          `json:"svg_path"`
	Strokes []anchor.Stroke `json:"strokes"`
	Points  []float64       `json:"points"`
}

// path returns the supplied path, or nil when none was given.
func (a pathArgs) path() (*anchor.Path, error) {
	switch {
	case a.SVGPath != "":
		return anchor.ParseSVGPath(a.SVGPath)
	case a.Strokes != nil:
		return &anchor.Path{Strokes: a.Strokes}, nil
	case a.Points != nil:
		return &anchor.Path{Strokes: []anchor.Stroke{{Points: a.Points}}}, nil
	}
	return nil, nil
}

type anchorsResult struct {
	Count   int            `json:"count"`
	Anchors []anchor.Point `json:"anchors"`
}

func (s *Server) handleExtractAnchors(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := a.path()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("one of svg_path, strokes or points is required")
	}
	anchors := p.Anchors()
	return &anchorsResult{Count: len(anchors), Anchors: anchors}, nil
}

type placeArgs struct {
	pathArgs
	labelFormatArgs

	Path        string `json:"path"`
	Output      string `json:"output"`
	StartNumber string `json:"start_number"`
	Font        string `json:"font"`
	FontSize    int    `json:"font_size"`
	AutoSize    *bool  `json:"auto_size"`
	BoxWidth    int    `json:"box_width"`
	BoxHeight   int    `json:"box_height"`
	Opacity     *int   `json:"opacity"`
	Background  string `json:"background"`
	Foreground  string `json:"foreground"`
	DryRun      bool   `json:"dry_run"`
	Preview     bool   `json:"preview"`
}

// options converts the arguments to placement options over the defaults.
func (a placeArgs) options() (placement.Options, error) {
	opts := placement.DefaultOptions()
	opts.MuseumCode = a.MuseumCode
	opts.CollectionCode = a.CollectionCode
	opts.Font = a.Font
	opts.FontSize = a.FontSize
	opts.CustomField = a.CustomField

	pos, err := a.position()
	if err != nil {
		return opts, err
	}
	opts.CustomFieldPosition = pos

	if a.StartNumber != "" {
		opts.UseSavedNumber = false
		opts.StartNumber = a.StartNumber
	}
	if a.Digits != 0 {
		opts.Digits = a.Digits
	}
	if a.AutoSize != nil {
		opts.AutoSize = *a.AutoSize
	}
	if a.BoxWidth != 0 {
		opts.BoxWidth = a.BoxWidth
	}
	if a.BoxHeight != 0 {
		opts.BoxHeight = a.BoxHeight
	}
	if a.Opacity != nil {
		opts.Opacity = *a.Opacity
	}
	return opts, nil
}

func (s *Server) handlePlace(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a placeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	p, err := a.pathArgs.path()
	if err != nil {
		return nil, err
	}

	res, err := s.svc.Place(ctx, labeler.PlaceRequest{
		Image:   a.Path,
		Output:  a.Output,
		Path:    p,
		Options: opts,
		Style:   render.Style{Background: a.Background, Foreground: a.Foreground},
		DryRun:  a.DryRun,
		Preview: a.Preview,
	})
	if res == nil {
		return nil, err
	}
	return res, err
}

type verifyLabelArg struct {
	Text string `json:"text"`
	X1   int    `json:"x1"`
	Y1   int    `json:"y1"`
	X2   int    `json:"x2"`
	Y2   int    `json:"y2"`
}

type verifyArgs struct {
	Path     string           `json:"path"`
	RunID    string           `json:"run_id"`
	Labels   []verifyLabelArg `json:"labels"`
	Language string           `json:"language"`
}

func (s *Server) handleVerify(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a verifyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	labels := make([]placement.Instruction, 0, len(a.Labels))
	for i, l := range a.Labels {
		labels = append(labels, placement.Instruction{
			Index: i,
			Text:  l.Text,
			Rect:  image.Rect(l.X1, l.Y1, l.X2, l.Y2),
		})
	}
	return s.svc.Verify(ctx, labeler.VerifyRequest{
		Image:    a.Path,
		Labels:   labels,
		RunID:    a.RunID,
		Language: a.Language,
	})
}

type historyArgs struct {
	RunID  string `json:"run_id"`
	Source string `json:"source"`
	Label  string `json:"label"`
	Limit  int    `json:"limit"`
	Gaps   bool   `json:"gaps"`
}

type historyResult struct {
	Count   int            `json:"count"`
	Entries []ledger.Entry `json:"entries"`
}

type gapsResult struct {
	Count int          `json:"count"`
	Gaps  []ledger.Gap `json:"gaps"`
}

func (s *Server) handleHistory(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a historyArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Gaps {
		gaps, err := s.svc.Gaps(ctx)
		if err != nil {
			return nil, err
		}
		return &gapsResult{Count: len(gaps), Gaps: gaps}, nil
	}
	entries, err := s.svc.History(ctx, ledger.Query{RunID: a.RunID, Source: a.Source, Label: a.Label, Limit: a.Limit})
	if err != nil {
		return nil, err
	}
	return &historyResult{Count: len(entries), Entries: entries}, nil
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path   string `json:"path"`
	Reload bool   `json:"reload"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Reload {
		s.svc.Cache().Evict(a.Path)
	}
	return imaging.LoadImageInfo(s.svc.Cache(), a.Path)
}

type imageCropArgs struct {
	Path  string  `json:"path"`
	X1    int     `json:"x1"`
	Y1    int     `json:"y1"`
	X2    int     `json:"x2"`
	Y2    int     `json:"y2"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleImageCrop(args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	img, err := s.svc.Cache().Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, image.Rect(a.X1, a.Y1, a.X2, a.Y2), a.Scale)
}
