package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestHandleAppendsLines(t *testing.T) {
    dir := t.TempDir()
    c := &Consumer{LogDir: filepath.Join(dir, "logs"), LogFile: "registration.log"}

    for _, action := range []string{ActionRegistered, ActionCancelled} {
        body, err := json.Marshal(RegistrationEvent{
            Action:      action,
            UserID:      7,
            NumberCode:  "N1",
            NumberTitle: "Pie in the face",
            OccurredAt:  "2026-05-01T12:00:00Z",
        })
        require.NoError(t, err)
        require.NoError(t, c.Handle(body))
    }

    data, err := os.ReadFile(filepath.Join(dir, "logs", "registration.log"))
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(data)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "Registration | registration_id= | user_id=7 | number=N1")
    assert.Contains(t, lines[1], "Cancellation")
}

func TestHandleRejectsBadMessages(t *testing.T) {
    c := &Consumer{LogDir: t.TempDir(), LogFile: "registration.log"}
    assert.Error(t, c.Handle([]byte("not json")))
    assert.Error(t, c.Handle([]byte(`{"action":"registered"}`)))
}

func TestBrokerURLFallback(t *testing.T) {
    t.Setenv("RABBITMQ_URL", "")
    t.Setenv("AMQP_URL", "amqp://other/")
    assert.Equal(t, "amqp://other/", brokerURL(""))
    assert.Equal(t, "amqp://explicit/", brokerURL("amqp://explicit/"))
}
