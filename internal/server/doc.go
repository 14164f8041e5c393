// Package server implements the MCP (Model Context Protocol) server for
// numbering specimens on photographs.
//
// This package provides a JSON-RPC 2.0 server that exposes the labeling
// service through the MCP protocol, so an assistant can place catalog
// labels such as NHM-ENT-00042 along a path drawn over a drawer or tray
// photograph.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Parameters:
//   - label_params_get: Show the saved parameters and next start number
//   - label_params_set: Save one parameter
//
// Labels:
//   - label_compose: Build label text for a number
//   - label_extract_anchors: List the anchor points of a path
//   - label_place: Draw numbered labels on every anchor and save the image
//   - label_verify: Read placed labels back with OCR
//   - label_history: List placed labels or missing numbers
//
// Images:
//   - image_load: Load image and get metadata
//   - image_crop: Extract rectangular region
//
// # Paths
//
// Tools that take a path accept SVG path data (svg_path), a list of
// strokes of flattened control-point triplets (strokes), or a single such
// stroke (points).
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string. For label_place runs that stopped part
//     way, a JSON object with the error and the run summary.
//
// # Usage
//
//	svc, err := labeler.Open(labeler.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer svc.Close()
//	if err := server.New(svc).Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
