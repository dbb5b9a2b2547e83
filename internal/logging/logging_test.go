package logging

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRedact(t *testing.T) {
	assert.Equal(t, "", Redact(""))
	assert.Equal(t, "****", Redact("abc"))
	assert.Equal(t, "****", Redact("abcd"))
	assert.Equal(t, "****cdef", Redact("secret-token-abcdef"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("unknown"))
}

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	// Must be usable without panicking.
	logger.Info().Msg("noop")
}
