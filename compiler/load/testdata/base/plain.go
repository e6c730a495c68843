package base

// Plain has no directive.
type Plain struct {
	ID int64
}
