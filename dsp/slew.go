package dsp

// OnePole moves current toward target by coeff of the remaining distance.
// For coeff in (0,1] the result never overshoots target.
func OnePole(current, target, coeff float64) float64 {
	return current + (target-current)*coeff
}
