// Package viz draws rigid-body worlds in the terminal.
//
// Bodies are rasterised onto a braille [Canvas]; 2D worlds are shown as
// is and 3D worlds through an orbiting orthographic [Camera]. [Model] is
// the Bubble Tea live view and [App] a scene picker in front of it.
//
// # Key Bindings
//
//	Space  - Pause/Resume simulation
//	.      - Single step while paused
//	R      - Rebuild the scene
//	+/-    - Change speed
//	arrows - Orbit the camera (3D)
//	T      - Cycle color themes
//	?      - Show help overlay
package viz
