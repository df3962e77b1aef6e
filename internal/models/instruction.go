package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ResponseType identifies the type a call returns. It is also the unit of
// invalidation and clearing in the store.
type ResponseType string

// ResponseTypeOf derives the ResponseType of T
func ResponseTypeOf[T any]() ResponseType {
	var zero T
	return ResponseType(fmt.Sprintf("%T", zero))
}

// CacheInstruction pairs a response type with the Operation resolved for a call
type CacheInstruction struct {
	ResponseType ResponseType
	Operation    Operation
}

// NewCacheInstruction creates an instruction
func NewCacheInstruction(responseType ResponseType, operation Operation) CacheInstruction {
	return CacheInstruction{ResponseType: responseType, Operation: operation}
}

func (i CacheInstruction) String() string {
	return fmt.Sprintf("CacheInstruction(%s, %v)", i.ResponseType, i.Operation)
}

// CacheToken is attached to every wrapper produced for a call
type CacheToken struct {
	Instruction CacheInstruction
	Status      CacheStatus
	Mode        ConsumptionMode
	RequestKey  string
	URL         string
	CallID      string
	FetchDate   time.Time
	CacheDate   time.Time
	ExpiryDate  time.Time
}

// NewInstructionToken creates the token for a call before its entry is resolved
func NewInstructionToken(instruction CacheInstruction, mode ConsumptionMode, requestKey, url string, now time.Time) CacheToken {
	return CacheToken{
		Instruction: instruction,
		Status:      StatusInstruction,
		Mode:        mode,
		RequestKey:  requestKey,
		URL:         url,
		CallID:      uuid.NewString(),
		FetchDate:   now,
	}
}

// IsSingle reports single-result consumption
func (t CacheToken) IsSingle() bool {
	return t.Mode.IsSingle()
}

// IsCompletable reports completion-only consumption
func (t CacheToken) IsCompletable() bool {
	return t.Mode.IsCompletable()
}

// WithStatus returns a copy of the token carrying status
func (t CacheToken) WithStatus(status CacheStatus) CacheToken {
	t.Status = status
	return t
}

// WithDates returns a copy of the token carrying the cache and expiry dates of an entry
func (t CacheToken) WithDates(cacheDate, expiryDate time.Time) CacheToken {
	t.CacheDate = cacheDate
	t.ExpiryDate = expiryDate
	return t
}
