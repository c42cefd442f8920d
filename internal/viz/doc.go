// Package viz renders phasekit systems in the terminal.
//
// The interactive pieces use Bubble Tea:
//
//   - [Picker]: preset menu that opens an explorer
//   - [Explorer]: animated particles, live phase line and formula editing
//   - [Canvas]: braille canvas with a world-coordinate [Viewport]
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset particles and parameters
//	Tab   - Select next parameter
//	[ ]   - Decrease/increase the selected parameter
//	E     - Edit the formula (Enter applies, Esc cancels); new names
//	        become parameters starting at 0
//	Q     - Quit
//
// Parameter and formula changes re-run the phase line analysis and let the
// particles continue from their current positions.
package viz
