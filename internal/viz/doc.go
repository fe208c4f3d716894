// Package viz renders construction runs in the terminal.
//
//   - [PlotCumulative], [PlotDaily], [PlotSweep]: asciigraph charts
//   - [Replay]: a Bubble Tea viewer that steps through a run day by day
//
// # Key Bindings
//
//	Space - Play/Pause
//	←/→   - Previous/next day
//	Home  - Back to the starting wall
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
