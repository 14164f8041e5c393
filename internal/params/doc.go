// Package params persists the labeling parameters between runs.
//
// Parameters live in a flat text file with one key=value pair per line:
//
//	museum_code=MUS
//	collection_code=COL
//	font=Arial Bold
//	font_size=20
//	start_number=1
//
// The store fails soft. Load always returns a complete, usable Config and
// reports I/O problems through an *IOError next to it, so callers can log
// the problem and carry on with defaults. There is no locking: two
// processes writing the same file race and the last writer wins.
package params
