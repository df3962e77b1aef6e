package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-cache-interceptor/internal/models"
)

func TestFilterFinal(t *testing.T) {
	modes := []models.ConsumptionMode{models.ModeStream, models.ModeSingle, models.ModeCompletion}
	ops := []models.OperationType{
		models.OperationCache,
		models.OperationRefresh,
		models.OperationOffline,
		models.OperationDoNotCache,
		models.OperationInvalidate,
		models.OperationClear,
	}

	for _, op := range ops {
		for _, mode := range modes {
			for _, allow := range []bool{false, true} {
				want := (op == models.OperationCache || op == models.OperationRefresh) &&
					mode == models.ModeSingle && !allow

				assert.Equal(t, want, FilterFinal(op, mode, allow),
					"op=%s mode=%s allowNonFinalForSingle=%t", op, mode, allow)
			}
		}
	}
}

func TestFilterFinal_UnknownOperationPanics(t *testing.T) {
	assert.Panics(t, func() {
		FilterFinal("BOGUS", models.ModeSingle, false)
	})
}
