package config

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlagsDefaults(t *testing.T) {
	ff := LoadFeatureFlags()

	for _, name := range []string{FlagPushReminders, FlagLowAllowanceAlerts, FlagCSVExport, FlagTimetableImage} {
		assert.True(t, ff.IsEnabled(name), name)
		assert.True(t, ff.IsEnabledFor(name, "user-1"), name)
	}

	assert.False(t, ff.IsEnabled("no.such.flag"))
	assert.False(t, ff.IsEnabledFor("no.such.flag", "user-1"))
}

func TestFeatureFlagsDisable(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.DisableFeature(FlagCSVExport))
	assert.False(t, ff.IsEnabled(FlagCSVExport))
	assert.False(t, ff.IsEnabledFor(FlagCSVExport, "user-1"))

	require.NoError(t, ff.EnableFeature(FlagCSVExport))
	assert.True(t, ff.IsEnabled(FlagCSVExport))
}

func TestFeatureFlagsUserOverrideWinsOverRollout(t *testing.T) {
	ff := LoadFeatureFlags()

	require.NoError(t, ff.DisableFeature(FlagLowAllowanceAlerts))
	ff.SetUserOverride("user-1", FlagLowAllowanceAlerts, true)

	assert.True(t, ff.IsEnabledFor(FlagLowAllowanceAlerts, "user-1"))
	assert.False(t, ff.IsEnabledFor(FlagLowAllowanceAlerts, "user-2"))

	ff.ClearUserOverrides("user-1")
	assert.False(t, ff.IsEnabledFor(FlagLowAllowanceAlerts, "user-1"))
}

func TestFeatureFlagsRolloutIsDeterministic(t *testing.T) {
	ff := LoadFeatureFlags()
	require.NoError(t, ff.SetRolloutPercent(FlagPushReminders, 50))

	in, out := 0, 0
	for i := 0; i < 200; i++ {
		userID := fmt.Sprintf("user-%d", i)
		first := ff.IsEnabledFor(FlagPushReminders, userID)
		// Users must stay in their bucket between checks.
		assert.Equal(t, first, ff.IsEnabledFor(FlagPushReminders, userID))
		if first {
			in++
		} else {
			out++
		}
	}
	assert.NotZero(t, in)
	assert.NotZero(t, out)
}

func TestFeatureFlagsRolloutValidation(t *testing.T) {
	ff := LoadFeatureFlags()

	assert.ErrorIs(t, ff.SetRolloutPercent("no.such.flag", 50), ErrFeatureNotFound)
	assert.ErrorIs(t, ff.SetRolloutPercent(FlagCSVExport, 101), ErrInvalidRolloutPercent)
	assert.ErrorIs(t, ff.SetRolloutPercent(FlagCSVExport, -1), ErrInvalidRolloutPercent)
}

func TestFeatureFlagsEnvOverride(t *testing.T) {
	t.Setenv("FEATURE_EXPORT_CSV", "false")
	t.Setenv("FEATURE_NOTIFY_LOW_ALLOWANCE", "25")

	ff := LoadFeatureFlags()

	assert.False(t, ff.IsEnabled(FlagCSVExport))

	features := ff.GetAllFeatures()
	require.Contains(t, features, FlagLowAllowanceAlerts)
	assert.Equal(t, 25, features[FlagLowAllowanceAlerts].RolloutPercent)
}
