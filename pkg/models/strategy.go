package models

// Strategy selects how far the router decomposes complex tasks.
type Strategy string

const (
	// StrategySingle decomposes a complex prompt once and dispatches every
	// child directly. This is the default.
	StrategySingle Strategy = "single"
	// StrategyRecursive re-classifies each child and keeps decomposing complex
	// ones until a maximum depth is reached.
	StrategyRecursive Strategy = "recursive"
)

// Valid returns true if the strategy is a known value.
func (s Strategy) Valid() bool {
	switch s {
	case StrategySingle, StrategyRecursive:
		return true
	default:
		return false
	}
}
