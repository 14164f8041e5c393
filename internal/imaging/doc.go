// Package imaging loads specimen photographs and cuts previews out of them.
//
// Photographs are decoded with EXIF orientation applied, so pixel
// coordinates of a path drawn over the photo as displayed line up with the
// decoded image. All coordinates are 0-based with (0,0) at the top-left
// corner, X increasing rightward and Y increasing downward. For regions,
// (x1,y1) is inclusive and (x2,y2) is exclusive.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. Cached images are treated as
// read-only; labeling always works on a copy.
//
// # Memory
//
// Specimen photographs are large. Long-running servers should Evict images
// they no longer need.
package imaging
