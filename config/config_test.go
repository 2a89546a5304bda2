package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_admin_telegram_ids_parse_from_env(t *testing.T) {
	t.Setenv("ADMIN_TELEGRAM_IDS", " 186005635, 99, not-a-number, 7 ")

	assert.Equal(t, []int64{186005635, 99, 7}, getEnvAsInt64List("ADMIN_TELEGRAM_IDS", ""))
}

func Test_admin_telegram_ids_default_to_empty(t *testing.T) {
	t.Setenv("ADMIN_TELEGRAM_IDS", "")

	assert.Empty(t, getEnvAsInt64List("ADMIN_TELEGRAM_IDS", ""))
}
