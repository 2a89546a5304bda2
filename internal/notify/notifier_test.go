package notify_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"gebeya-market/internal/notify"
)

func Test_Preview_keeps_short_messages_intact(t *testing.T) {
	assert.Equal(t, "is this available?", notify.Preview("is this available?"))
}

func Test_Preview_truncates_long_messages_to_100_runes(t *testing.T) {
	long := strings.Repeat("a", 150)

	got := notify.Preview(long)

	assert.Len(t, []rune(got), 100)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 97), strings.TrimSuffix(got, "..."))
}

func Test_Preview_counts_runes_not_bytes(t *testing.T) {
	// Amharic text is multi-byte per rune; exactly 100 runes must survive.
	amharic := strings.Repeat("ሰ", 100)

	assert.Equal(t, amharic, notify.Preview(amharic))
}
