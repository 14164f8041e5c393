package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperties describe the three ways a path can be supplied. The
// first one present wins: svg_path, strokes, points.
func pathProperties() map[string]interface{} {
	return map[string]interface{}{
		"svg_path": map[string]interface{}{
			"type":        "string",
			"description": "SVG path data (the d attribute), e.g. \"M 120 80 L 340 80 C 400 120 400 200 340 240\". Every node of every subpath receives a label.",
		},
		"strokes": map[string]interface{}{
			"type":        "array",
			"description": "Path strokes. Each stroke's points are flattened triplets of in-control, anchor and out-control points: [inX, inY, anchorX, anchorY, outX, outY, ...].",
			"items": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"points": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "number"},
					},
					"closed": map[string]interface{}{
						"type": "boolean",
					},
				},
				"required": []string{"points"},
			},
		},
		"points": map[string]interface{}{
			"type":        "array",
			"items":       map[string]interface{}{"type": "number"},
			"description": "A single stroke as flattened control-point triplets (shorthand for one entry of strokes)",
		},
	}
}

// labelFormatProperties are shared by label_compose and label_place.
func labelFormatProperties() map[string]interface{} {
	return map[string]interface{}{
		"museum_code": map[string]interface{}{
			"type":        "string",
			"description": "Museum code. Empty uses the saved value; label_place saves a non-empty value.",
		},
		"collection_code": map[string]interface{}{
			"type":        "string",
			"description": "Collection code. Empty uses the saved value; label_place saves a non-empty value.",
		},
		"digits": map[string]interface{}{
			"type":        "integer",
			"description": "Width of the zero-padded number, 1-10 (default: 5). Longer numbers are never truncated.",
			"minimum":     1,
			"maximum":     10,
		},
		"custom_field": map[string]interface{}{
			"type":        "string",
			"description": "Optional extra field inserted into the label",
		},
		"custom_field_position": map[string]interface{}{
			"type":        "string",
			"description": "Where the custom field goes: before_museum, after_museum, after_collection (default) or end",
		},
	}
}

func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Parameters
		{
			Name:        "label_params_get",
			Description: "Show the saved labeling parameters (museum code, collection code, font, font size, next start number) and where they are stored.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "label_params_set",
			Description: "Save one labeling parameter. Integer keys (fontSize, start_number) must hold a whole number.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"key": map[string]interface{}{
						"type":        "string",
						"description": "Parameter key: museum_code, collection_code, font, fontSize or start_number",
					},
					"value": map[string]interface{}{
						"type":        "string",
						"description": "New value",
					},
				},
				"required": []string{"key", "value"},
			},
		},

		// Labels
		{
			Name:        "label_compose",
			Description: "Build the text of a specimen label for a number without drawing anything, e.g. 42 -> MUS-COL-00042.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(labelFormatProperties(), map[string]interface{}{
					"number": map[string]interface{}{
						"type":        "integer",
						"description": "Sequence number",
						"minimum":     0,
					},
				}),
				"required": []string{"number"},
			},
		},
		{
			Name:        "label_extract_anchors",
			Description: "List the anchor points of a path in traversal order. These are the positions label_place will label.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pathProperties(),
			},
		},
		{
			Name:        "label_place",
			Description: "Draw one numbered specimen label centered on every anchor of a path and save the labeled image. Numbers continue from the saved start number unless start_number is given; the counter is saved after the run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), labelFormatProperties(), map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file to label",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Where to save the labeled image (default: <name>-labeled.<ext> next to the input)",
					},
					"start_number": map[string]interface{}{
						"type":        "string",
						"description": "First number of this run. Must be a non-negative whole number; anything else falls back to the saved number. A valid value is saved.",
					},
					"font": map[string]interface{}{
						"type":        "string",
						"description": "Font name (e.g. \"Arial Bold\", \"Courier New\") or path to a .ttf/.otf file. Saved when given.",
					},
					"font_size": map[string]interface{}{
						"type":        "integer",
						"description": "Font size in pixels, 6-400. Saved when given.",
						"minimum":     6,
						"maximum":     400,
					},
					"auto_size": map[string]interface{}{
						"type":        "boolean",
						"description": "Size the rectangle from the text plus padding (default: true)",
					},
					"box_width": map[string]interface{}{
						"type":        "integer",
						"description": "Rectangle width when auto_size is false (default: 175)",
					},
					"box_height": map[string]interface{}{
						"type":        "integer",
						"description": "Rectangle height when auto_size is false (default: 30)",
					},
					"opacity": map[string]interface{}{
						"type":        "integer",
						"description": "Background rectangle opacity, 0-100 (default: 100)",
						"minimum":     0,
						"maximum":     100,
					},
					"background": map[string]interface{}{
						"type":        "string",
						"description": "Rectangle color as hex (default: #FFFFFF)",
					},
					"foreground": map[string]interface{}{
						"type":        "string",
						"description": "Text color as hex, or \"auto\" for black or white by contrast (default: #000000)",
					},
					"dry_run": map[string]interface{}{
						"type":        "boolean",
						"description": "Plan the labels without saving the image, parameters or history (default: false)",
					},
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Return base64 PNG crops around the first ten labels (default: false)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "label_verify",
			Description: "Read placed labels back with OCR and compare them with the expected text. Uses the labels of the last label_place that wrote this image, the labels passed in, or the labels of a recorded run.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the labeled image",
					},
					"run_id": map[string]interface{}{
						"type":        "string",
						"description": "Run to verify, as returned by label_place",
					},
					"labels": map[string]interface{}{
						"type":        "array",
						"description": "Labels to check, each with its expected text and rectangle",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"text": map[string]interface{}{"type": "string"},
								"x1":   map[string]interface{}{"type": "integer"},
								"y1":   map[string]interface{}{"type": "integer"},
								"x2":   map[string]interface{}{"type": "integer"},
								"y2":   map[string]interface{}{"type": "integer"},
							},
							"required": []string{"text", "x1", "y1", "x2", "y2"},
						},
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code (default: eng)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "label_history",
			Description: "List previously placed labels, most recent first, or report numbers missing from the sequence.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"run_id": map[string]interface{}{
						"type":        "string",
						"description": "Only labels of this run",
					},
					"source": map[string]interface{}{
						"type":        "string",
						"description": "Only labels placed on this image",
					},
					"label": map[string]interface{}{
						"type":        "string",
						"description": "Only labels containing this text",
					},
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of entries (default: 100)",
					},
					"gaps": map[string]interface{}{
						"type":        "boolean",
						"description": "Report missing sequence numbers instead of entries (default: false)",
					},
				},
			},
		},

		// Images
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"reload": map[string]interface{}{
						"type":        "boolean",
						"description": "Read the file again instead of using the cached copy, e.g. after the photo was re-exported (default: false)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_crop",
			Description: "Crop a rectangular region from an image and return it as base64-encoded PNG. Use this to inspect placed labels up close.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
					"x1": map[string]interface{}{
						"type":        "integer",
						"description": "Left edge X coordinate (0-based)",
					},
					"y1": map[string]interface{}{
						"type":        "integer",
						"description": "Top edge Y coordinate (0-based)",
					},
					"x2": map[string]interface{}{
						"type":        "integer",
						"description": "Right edge X coordinate (exclusive)",
					},
					"y2": map[string]interface{}{
						"type":        "integer",
						"description": "Bottom edge Y coordinate (exclusive)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for output (default: 1.0). Use 2.0 to zoom in.",
					},
				},
				"required": []string{"path", "x1", "y1", "x2", "y2"},
			},
		},
	}
}
