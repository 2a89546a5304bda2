package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_gorm_config_translates_driver_errors(t *testing.T) {
	// Without translation a duplicate-key violation stays a raw driver error
	// and chat creation can never fall back to the concurrently created chat.
	assert.True(t, gormConfig("release").TranslateError)
	assert.True(t, gormConfig("debug").TranslateError)
}
