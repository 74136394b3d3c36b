// Package viz renders synchronization results in the terminal.
//
// [LiveModel] is a Bubble Tea program that steps a world and draws its
// bodies and registered joints on a Braille [Canvas], next to the current
// separation drift. [RenderReport] and [PlotSeparation] print static
// summaries for the non-interactive commands.
//
// # Key Bindings
//
//	Space - Pause/Resume stepping
//	R     - Rebuild joints from the scene
//	T     - Cycle color themes
//	Q     - Quit
package viz
