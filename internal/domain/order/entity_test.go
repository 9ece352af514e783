package order

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusCompleted, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusCompleted, false},
		{StatusPaid, StatusPending, false},
		{StatusShipped, StatusCompleted, true},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusPaid, false},
	}

	for _, tt := range tests {
		got := CanTransition(tt.from, tt.to)
		assert.Equal(t, tt.allowed, got, "%s -> %s", tt.from, tt.to)
	}
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus(Status("refunded")))
	assert.False(t, ValidStatus(Status("")))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Order{Status: StatusPending}).IsTerminal())
	assert.False(t, (&Order{Status: StatusPaid}).IsTerminal())
	assert.False(t, (&Order{Status: StatusShipped}).IsTerminal())
	assert.True(t, (&Order{Status: StatusCompleted}).IsTerminal())
	assert.True(t, (&Order{Status: StatusCancelled}).IsTerminal())
}

func TestHoldsStock(t *testing.T) {
	assert.True(t, (&Order{Status: StatusPending}).HoldsStock())
	assert.True(t, (&Order{Status: StatusPaid}).HoldsStock())
	assert.False(t, (&Order{Status: StatusShipped}).HoldsStock())
	assert.False(t, (&Order{Status: StatusCompleted}).HoldsStock())
	assert.False(t, (&Order{Status: StatusCancelled}).HoldsStock())
}

func TestGenerateOrderNumber(t *testing.T) {
	ord := &Order{
		ID:        7,
		CreatedAt: time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "ORD-20260315-00007", ord.GenerateOrderNumber())
}
