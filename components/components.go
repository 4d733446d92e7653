// Package components defines ECS components for the simulation.
package components

// Position represents an agent's position in field cells.
type Position struct {
	X, Y float32
}

// Heading represents an agent's direction of travel.
type Heading struct {
	Angle float32 // radians, 0 = +X
}

// Species tags an agent with the field channel it deposits into and senses.
type Species struct {
	Index uint8
}
