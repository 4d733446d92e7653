package renderer

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUD draws the display-mode button and a status line over the window.
type HUD struct {
	X, Y float32
}

// HUDState is what the HUD shows.
type HUDState struct {
	AgentsOnly bool
	Frame      int64
	Agents     int
	Steps      int
}

// Draw renders the HUD and reports whether the toggle button was pressed
// this frame. Must be called between BeginDrawing and EndDrawing.
func (h HUD) Draw(st HUDState) bool {
	label := "Show agents"
	if st.AgentsOnly {
		label = "Show trail"
	}
	pressed := gui.Button(rl.Rectangle{X: h.X, Y: h.Y, Width: 120, Height: 30}, label)

	status := fmt.Sprintf("frame %d  agents %d  steps/frame %d  fps %d",
		st.Frame, st.Agents, st.Steps, rl.GetFPS())
	gui.Label(rl.Rectangle{X: h.X + 130, Y: h.Y, Width: 400, Height: 30}, status)
	return pressed
}
