// Package placement turns path anchors into specimen labels.
//
// Work is split in two stages. PlanLabel and Plan are pure: given anchors,
// parameters and options they compute the label text and the rectangle and
// text geometry of every label. Driver.Run executes a full run: it loads
// the parameters, resolves the first sequence number, hands each planned
// label to a Canvas for drawing, and persists the next sequence number.
//
// A run goes through these states:
//
//	Idle -> Loading -> Resolving start -> Placing (per anchor) -> Persisting -> Idle
//
// The saved sequence number is not tied to any undo of the drawing done on
// the Canvas. Undoing labels on the image leaves a gap in the sequence on
// the next run.
package placement
