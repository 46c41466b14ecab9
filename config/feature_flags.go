package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with optional gradual rollout.
// Rollout buckets are derived from a hash of the user ID, so a user
// stays in the same bucket across sessions.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> flag -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// FlagPushReminders gates the hourly reminder scan and push
	// delivery as a whole.
	FlagPushReminders = "notify.push_reminders"

	// FlagLowAllowanceAlerts gates the "don't skip today" alerts.
	// class_soon reminders are unaffected.
	FlagLowAllowanceAlerts = "notify.low_allowance"

	// FlagCSVExport gates the attendance export endpoints.
	FlagCSVExport = "export.csv"

	// FlagTimetableImage gates storing a timetable image on the profile.
	FlagTimetableImage = "profile.timetable_image"
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FlagPushReminders] = &Feature{
		Name:           FlagPushReminders,
		Description:    "Hourly reminder scan with web push delivery",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FlagLowAllowanceAlerts] = &Feature{
		Name:           FlagLowAllowanceAlerts,
		Description:    "Low bunk-allowance alerts on class days",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FlagCSVExport] = &Feature{
		Name:           FlagCSVExport,
		Description:    "CSV export of attendance logs",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FlagTimetableImage] = &Feature{
		Name:           FlagTimetableImage,
		Description:    "Timetable image stored on the profile",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_NOTIFY_LOW_ALLOWANCE=false
// Example: FEATURE_EXPORT_CSV=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "notify.low_allowance" -> "FEATURE_NOTIFY_LOW_ALLOWANCE"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is globally enabled (full rollout or
// any non-zero rollout). Use IsEnabledFor for per-user bucketing.
func (ff *FeatureFlags) IsEnabled(flagName string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[flagName]
	if !ok {
		return false
	}
	return feature.Enabled && feature.RolloutPercent > 0
}

// IsEnabledFor checks if a feature is enabled for a specific user,
// taking overrides and rollout buckets into account.
func (ff *FeatureFlags) IsEnabledFor(flagName, userID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if userID != "" {
		if overrides, ok := ff.userOverrides[userID]; ok {
			if enabled, ok := overrides[flagName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[flagName]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent >= 100 {
		return true
	}
	if userID == "" {
		return feature.RolloutPercent > 0
	}
	return isInRollout(userID, flagName, feature.RolloutPercent)
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, flagName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(flagName))
	h.Write([]byte(userID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}

// SetUserOverride sets a feature override for a specific user.
// Useful for testing and debugging.
func (ff *FeatureFlags) SetUserOverride(userID, flagName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][flagName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
// Thread-safe for live updates.
func (ff *FeatureFlags) SetRolloutPercent(flagName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[flagName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(flagName string) error {
	return ff.SetRolloutPercent(flagName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(flagName string) error {
	return ff.SetRolloutPercent(flagName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		result[k] = &featureCopy
	}
	return result
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
