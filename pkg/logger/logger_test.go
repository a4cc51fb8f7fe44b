package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "production")

	l.Info("subscription expired", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "subscription expired", entry["msg"])
	assert.EqualValues(t, 3, entry["count"])
}

func TestNewDevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "development")

	l.Debug("listing slot consumed", "user_id", 7)

	assert.Contains(t, buf.String(), "listing slot consumed")
	assert.Contains(t, buf.String(), "user_id")
}

func TestFromContextAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	log = New(&buf, "production")

	ctx := WithRequestID(context.Background(), "req-42")
	FromContext(ctx).Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["request_id"])
}

func TestForUserLogsUserIDOnce(t *testing.T) {
	var buf bytes.Buffer
	log = New(&buf, "production")

	ctx := WithUserID(context.Background(), 7)
	ForUser(ctx, 7).Info("listing slot consumed")
	assert.Equal(t, 1, strings.Count(buf.String(), `"user_id"`))
	assert.NotContains(t, buf.String(), "target_user_id")

	buf.Reset()
	ForUser(context.Background(), 9).Info("subscription expired")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, 9, entry["user_id"])

	buf.Reset()
	ForUser(ctx, 9).Info("subscription activated")
	entry = map[string]any{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.EqualValues(t, 7, entry["user_id"])
	assert.EqualValues(t, 9, entry["target_user_id"])
}
