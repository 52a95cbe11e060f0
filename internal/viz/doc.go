// Package viz draws a running simulation in the terminal.
//
// The live view is a Bubble Tea program:
//
//   - [Model]: steps a simulation per tick and plots the x-y projection
//   - [Canvas]: Braille-based pixel canvas
//   - [Viewport]: maps metres to canvas sub-pixels
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Rebuild from the factory
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[]    - Time travel (rewind/forward)
//	+-    - Zoom, F to refit
package viz
