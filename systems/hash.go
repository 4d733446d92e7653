package systems

// Hash is a 32-bit integer mixer used as the steering random source.
// Identical inputs give identical outputs on every platform.
func Hash(state uint32) uint32 {
	state ^= 2747636419
	state *= 2654435769
	state ^= state >> 16
	state *= 2654435769
	state ^= state >> 16
	state *= 2654435769
	return state
}

// Unit maps a hash to [0, 1].
func Unit(h uint32) float32 {
	return float32(float64(h) / 4294967295.0)
}

// SteerRandom derives the per-agent random value for one sub-step from the
// agent's cell, its index, and the frame time.
func SteerRandom(cell, index int, elapsedMicros uint32) float32 {
	return Unit(Hash(uint32(cell) + Hash(uint32(index)+elapsedMicros)))
}
