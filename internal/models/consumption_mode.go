package models

import "fmt"

// ConsumptionMode determines how many emissions a caller can structurally accept
type ConsumptionMode int

const (
	// ModeStream accepts any number of emissions
	ModeStream ConsumptionMode = iota
	// ModeSingle accepts exactly one value
	ModeSingle
	// ModeCompletion only observes completion or failure
	ModeCompletion
)

// IsSingle reports single-result consumption
func (m ConsumptionMode) IsSingle() bool {
	return m == ModeSingle
}

// IsCompletable reports completion-only consumption
func (m ConsumptionMode) IsCompletable() bool {
	return m == ModeCompletion
}

func (m ConsumptionMode) String() string {
	switch m {
	case ModeStream:
		return "stream"
	case ModeSingle:
		return "single"
	case ModeCompletion:
		return "completion"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseConsumptionMode converts a mode name, defaulting to single for an empty string
func ParseConsumptionMode(str string) (ConsumptionMode, error) {
	switch str {
	case "", "single":
		return ModeSingle, nil
	case "stream":
		return ModeStream, nil
	case "completion":
		return ModeCompletion, nil
	default:
		return ModeSingle, fmt.Errorf("invalid consumption mode '%s': must be one of 'single', 'stream', 'completion'", str)
	}
}
