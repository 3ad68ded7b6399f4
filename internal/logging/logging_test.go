package logging

import (
	"context"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{})

	require.NoError(t, Setup("debug", "json"))
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	require.NoError(t, Setup("warn", "text"))
	assert.Equal(t, log.WarnLevel, log.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, log.StandardLogger().Formatter)

	assert.Error(t, Setup("loud", "text"))
}

func TestContextEntry(t *testing.T) {
	ctx := context.Background()
	assert.NotNil(t, FromContext(ctx))
	assert.Empty(t, RequestID(ctx))

	ctx = WithRequestID(ctx, "abc")
	assert.Equal(t, "abc", RequestID(ctx))
	assert.Equal(t, "abc", FromContext(ctx).Data["request_id"])

	ctx = WithEntry(ctx, FromContext(ctx).WithField("path", "/"))
	entry := FromContext(ctx)
	assert.Equal(t, "/", entry.Data["path"])
	assert.Equal(t, "abc", entry.Data["request_id"])
}
