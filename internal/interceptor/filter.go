package interceptor

import "go-cache-interceptor/internal/models"

// Passes reports whether an emission with the given status may reach the caller.
// Non-expiring operations let everything through.
func Passes(status models.CacheStatus, op models.Operation, mode models.ConsumptionMode, allowNonFinalForSingle bool) bool {
	expiring, ok := models.AsExpiring(op)
	if !ok {
		return true
	}
	policy := expiring.Policy()

	isFresh := status.IsFresh()
	isFinal := status.IsFinal()

	passes := (isFresh || !policy.FreshOnly) && (isFinal || !policy.FilterFinal)
	if !passes {
		return false
	}
	if mode.IsSingle() {
		return isFinal || (allowNonFinalForSingle && !policy.FilterFinal)
	}
	return true
}
