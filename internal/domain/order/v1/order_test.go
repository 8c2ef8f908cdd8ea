package orderv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test 1: Numeric status values are part of the public query surface
func TestStatus_Values(t *testing.T) {
	assert.EqualValues(t, 2, StatusActive)
	assert.EqualValues(t, 3, StatusFilled)
	assert.EqualValues(t, 5, StatusCancelled)
	assert.EqualValues(t, 6, StatusEmergency)
}

// Test 2: Terminal statuses allow no further settlement
func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusUnknown.Terminal())
	assert.False(t, StatusActive.Terminal())
	assert.True(t, StatusFilled.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusEmergency.Terminal())
}

// Test 3: Statuses render stable names
func TestStatus_String(t *testing.T) {
	assert.Equal(t, "active", StatusActive.String())
	assert.Equal(t, "filled", StatusFilled.String())
	assert.Equal(t, "cancelled", StatusCancelled.String())
	assert.Equal(t, "emergency", StatusEmergency.String())
	assert.Equal(t, "unknown", Status(99).String())
}
