package resolver

import (
	"fmt"

	"go-cache-interceptor/internal/models"
)

// FilterFinal derives whether non-final emissions must be withheld from a call.
// Only Cache and Refresh consumed by a single-result caller filter them, and
// allowNonFinalForSingle lifts that. Offline never has a later value to wait
// for, and streaming or completion-only callers accept interim values.
func FilterFinal(op models.OperationType, mode models.ConsumptionMode, allowNonFinalForSingle bool) bool {
	switch op {
	case models.OperationCache, models.OperationRefresh:
		return mode.IsSingle() && !allowNonFinalForSingle
	case models.OperationOffline, models.OperationDoNotCache, models.OperationInvalidate, models.OperationClear:
		return false
	default:
		panic(fmt.Sprintf("unknown operation type %q", string(op)))
	}
}
