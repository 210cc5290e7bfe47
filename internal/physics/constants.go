package physics

const (
	DefaultGravity = 9.81
	DefaultMass    = 1.2
)
