package messaging

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectNats_Unreachable(t *testing.T) {
	_, err := ConnectNats("nats://127.0.0.1:1")
	assert.Error(t, err)
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), SubjectTaskCreated, TaskEvent{TaskID: "t"}))
}

func TestTaskEventWireFormat(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	data, err := json.Marshal(TaskEvent{TaskID: "abc", OccurredAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"task_id":"abc","occurred_at":"2024-01-02T03:04:05Z"}`, string(data))

	data, err = json.Marshal(UserRegistered{Email: "a@x.com", Federated: true, OccurredAt: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@x.com","federated":true,"occurred_at":"2024-01-02T03:04:05Z"}`, string(data))
}
