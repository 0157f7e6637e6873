// Package domain contains the core entities of a powder-diffraction reduction.
//
// This package has no dependencies on infrastructure concerns (XML decoding,
// plotting, file system, logging) and holds only data and invariants.
//
// # Entities
//
//   - [Run]: one instrument file; the file-level wavelength plus its frames
//   - [Frame]: one measurement at a fixed detector-rotation angle
//   - [Grid]: a (ny, nx) grid of integer detector counts
//   - [Value]: a tagged field value (integer, float, string or grid)
//   - [Pixel]: one converted spectrum (d-spacing, position, monitor flag)
//
// Frames are constructed once at parse time and consumed read-only.
package domain
