// internal/notify/notify_test.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEvent = Event{
	Type:     "resume",
	Login:    "octocat",
	Platform: "Macintosh",
	Browser:  "Firefox",
	Device:   "desktop",
	At:       time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
}

func TestEvent_Summary(t *testing.T) {
	assert.Equal(t, "[RESUME:octocat] DESKTOP:MACINTOSH:FIREFOX", testEvent.Summary())
}

func TestMessage(t *testing.T) {
	msg, err := message(testEvent)
	require.NoError(t, err)

	assert.Equal(t, []byte("resume"), msg.Key)
	assert.Equal(t, testEvent.At, msg.Time)

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, testEvent, decoded)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, n.Notify(context.Background(), testEvent))
	assert.Contains(t, buf.String(), "[RESUME:octocat]")
	assert.NoError(t, n.Close())
}
