package pipeline

// Fault classifies recovered problems. None of them stops the frame loop; they
// are counted for telemetry.
type Fault int

const (
	// FaultDataUnavailable is a sample outside the grid or a missing field.
	FaultDataUnavailable Fault = iota
	// FaultNumericDegeneracy is a non-finite position or speed.
	FaultNumericDegeneracy
	// FaultResourceExhaustion is a resize superseded by a newer one.
	FaultResourceExhaustion
	// FaultConfigurationInvalid is an out-of-range tunable that was clamped.
	FaultConfigurationInvalid

	numFaults
)

func (f Fault) String() string {
	switch f {
	case FaultDataUnavailable:
		return "data_unavailable"
	case FaultNumericDegeneracy:
		return "numeric_degeneracy"
	case FaultResourceExhaustion:
		return "resource_exhaustion"
	case FaultConfigurationInvalid:
		return "configuration_invalid"
	}
	return "unknown"
}

// FaultCounts are cumulative counts indexed by Fault.
type FaultCounts [numFaults]uint64
