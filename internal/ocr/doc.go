// Package ocr reads placed labels back with Tesseract to check that they
// are legible.
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Verification crops every label rectangle out of the labeled image,
// enlarges it, runs OCR on it, and compares the recognized text with the
// expected label after normalization. Small fonts on busy backgrounds are
// the usual cause of mismatches; raising the font size or the rectangle
// opacity normally fixes them.
package ocr
