package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvironmentVariables(t *testing.T) {
	t.Setenv("GEOTRACK_TEST_VALUE", "a=b")

	env := GetEnvironmentVariables()
	assert.Equal(t, "a=b", env["GEOTRACK_TEST_VALUE"])
}

func TestDuration(t *testing.T) {
	env := map[string]string{"GOOD": "250ms", "BAD": "soon", "NEGATIVE": "-1s"}

	assert.Equal(t, 250*time.Millisecond, Duration(env, "GOOD", time.Second))
	assert.Equal(t, time.Second, Duration(env, "BAD", time.Second))
	assert.Equal(t, time.Second, Duration(env, "NEGATIVE", time.Second))
	assert.Equal(t, time.Second, Duration(env, "MISSING", time.Second))
}

func TestInt(t *testing.T) {
	env := map[string]string{"GOOD": "12", "BAD": "twelve", "ZERO": "0"}

	assert.Equal(t, 12, Int(env, "GOOD", 5))
	assert.Equal(t, 5, Int(env, "BAD", 5))
	assert.Equal(t, 5, Int(env, "ZERO", 5))
}

func TestEnabled(t *testing.T) {
	env := map[string]string{"ON": "yes", "OFF": "no"}

	assert.True(t, Enabled(env, "ON"))
	assert.False(t, Enabled(env, "OFF"))
	assert.False(t, Enabled(env, "MISSING"))
}
