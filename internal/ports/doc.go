// Package ports defines the interfaces that connect the reduction loop to
// its collaborators.
//
// # Port Interfaces
//
//   - [Converter]: places the detector and converts spectra to d-spacing
//   - [ProfileSink]: persists the accumulated profile after each frame
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters, internal/instrument) implement them.
package ports
