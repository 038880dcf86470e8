package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := NewManager()
	m.Start(ctx)
	return m
}

func TestNotifyReachesRegisteredMember(t *testing.T) {
	m := startManager(t)
	client := NewClient("member-b", nil)
	require.True(t, m.Register(client))
	require.Eventually(t, func() bool { return m.IsConnected("member-b") }, time.Second, time.Millisecond)

	require.NoError(t, m.Notify("member-b", MessageTypeChat, ChatData{ChatRoomID: "room-1", Message: "hello"}))

	select {
	case raw := <-client.Send:
		var msg struct {
			Type string   `json:"type"`
			Data ChatData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageTypeChat, msg.Type)
		assert.Equal(t, "room-1", msg.Data.ChatRoomID)
		assert.Equal(t, "hello", msg.Data.Message)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestSendToOfflineMember(t *testing.T) {
	m := startManager(t)
	assert.False(t, m.SendToMember("nobody", []byte("{}")))
}

func TestUnregisterClosesSend(t *testing.T) {
	m := startManager(t)
	client := NewClient("member-a", nil)
	require.True(t, m.Register(client))
	m.Unregister(client)

	require.Eventually(t, func() bool { return !m.IsConnected("member-a") }, time.Second, time.Millisecond)
	_, open := <-client.Send
	assert.False(t, open)
}

func TestReconnectReplacesPreviousClient(t *testing.T) {
	m := startManager(t)
	first := NewClient("member-a", nil)
	second := NewClient("member-a", nil)
	require.True(t, m.Register(first))
	require.True(t, m.Register(second))

	_, open := <-first.Send
	assert.False(t, open)

	assert.True(t, m.SendToMember("member-a", []byte("{}")))
	assert.Len(t, second.Send, 1)
}

func TestRegistrationAfterShutdownReturns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	m := NewManager()
	m.Start(ctx)

	client := NewClient("member-a", nil)
	require.True(t, m.Register(client))
	cancel()

	_, open := <-client.Send
	assert.False(t, open)

	returned := make(chan struct{})
	go func() {
		defer close(returned)
		m.Unregister(client)
		assert.False(t, m.Register(NewClient("member-b", nil)))
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("registration blocked after shutdown")
	}
	assert.False(t, m.IsConnected("member-a"))
	assert.False(t, m.IsConnected("member-b"))
}

func TestHandleIncomingAnswersPing(t *testing.T) {
	reply := HandleIncoming("member-a", []byte(`{"type":"ping"}`))
	require.NotNil(t, reply)
	assert.Contains(t, string(reply), `"type":"pong"`)

	assert.Nil(t, HandleIncoming("member-a", []byte(`{"type":"typing"}`)))
	assert.Nil(t, HandleIncoming("member-a", []byte(`not json`)))
}
