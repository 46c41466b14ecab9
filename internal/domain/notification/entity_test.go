package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mdi-hub/attendance-hub/internal/domain/shared"
)

func TestLowAllowanceNotification_Plural(t *testing.T) {
	n := NewLowAllowanceNotification("Physics", shared.ClockTime("09:00"), 2)
	assert.Contains(t, n.Body, "2 bunks left")

	n = NewLowAllowanceNotification("Physics", shared.ClockTime("09:00"), 1)
	assert.Contains(t, n.Body, "1 bunk left")
}

func TestLowAllowanceNotification_ClampsOverrun(t *testing.T) {
	// An over-recorded log makes the remaining allowance negative;
	// the message shows an empty allowance, not a negative count.
	n := NewLowAllowanceNotification("Physics", shared.ClockTime("09:00"), -1)
	assert.Contains(t, n.Body, "0 bunks left")
	assert.NotContains(t, n.Body, "-1")
}

func TestClassSoonNotification(t *testing.T) {
	n := NewClassSoonNotification("Algorithms")
	assert.True(t, n.IsValid())
	assert.Contains(t, n.Title, "Algorithms")
}
