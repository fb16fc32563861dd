package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nalin7parihar/AI-Moderated-ChatApp/internal/models"
)

type fakeConn struct {
	mu        sync.Mutex
	frames    [][]byte
	failWrite bool
	closed    bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("write failed")
	}
	if messageType == websocket.TextMessage {
		f.frames = append(f.frames, data)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func TestHubSubscribeAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	conn := &fakeConn{}

	hub.Subscribe(1, conn, ConnInfo{UserID: 10})
	require.Len(t, hub.rooms, 1)

	hub.Unsubscribe(1, conn)
	require.Len(t, hub.rooms, 0, "emptied room should be dropped")
}

func TestHubUnsubscribeAbsentIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Unsubscribe(1, &fakeConn{})

	conn := &fakeConn{}
	hub.Subscribe(2, conn, ConnInfo{UserID: 10})
	hub.Unsubscribe(2, &fakeConn{})
	require.Len(t, hub.rooms[2], 1)
}

func TestHubBroadcastNoRoomIsNoop(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(99, models.ChatEvent{Type: "message"})
}

func TestHubBroadcastDeliversToAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Subscribe(1, a, ConnInfo{UserID: 1})
	hub.Subscribe(1, b, ConnInfo{UserID: 2})

	other := &fakeConn{}
	hub.Subscribe(2, other, ConnInfo{UserID: 3})

	msg := models.Message{ID: 7, ChatID: 1, SenderID: 2, Content: "hi"}
	hub.Broadcast(1, models.ChatEvent{Type: "message", Message: &msg})

	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, b.received())
	assert.Equal(t, 0, other.received(), "unrelated chat must not receive the event")
	assert.Contains(t, string(a.frames[0]), `"content":"hi"`)
}

func TestHubBroadcastDropsOnlyFailingSubscriber(t *testing.T) {
	hub := NewHub()
	a := &fakeConn{}
	b := &fakeConn{failWrite: true}
	c := &fakeConn{}
	hub.Subscribe(1, a, ConnInfo{UserID: 1})
	hub.Subscribe(1, b, ConnInfo{UserID: 2})
	hub.Subscribe(1, c, ConnInfo{UserID: 3})

	hub.Broadcast(1, models.ChatEvent{Type: "message", Message: &models.Message{ID: 1, ChatID: 1}})

	assert.Equal(t, 1, a.received())
	assert.Equal(t, 1, c.received())
	assert.True(t, b.closed, "failing subscriber should be closed")

	require.Len(t, hub.rooms[1], 2)
	_, stillThere := hub.rooms[1][b]
	assert.False(t, stillThere, "failing subscriber should be unsubscribed")

	hub.Broadcast(1, models.ChatEvent{Type: "message", Message: &models.Message{ID: 2, ChatID: 1}})
	assert.Equal(t, 2, a.received())
	assert.Equal(t, 2, c.received())
}

func TestHubEvictUserClosesOnlyThatUser(t *testing.T) {
	hub := NewHub()
	target := &fakeConn{}
	bystander := &fakeConn{}
	hub.Subscribe(1, target, ConnInfo{UserID: 5})
	hub.Subscribe(1, bystander, ConnInfo{UserID: 6})

	hub.EvictUser(1, 5)

	assert.True(t, target.closed)
	assert.False(t, bystander.closed)
	require.Len(t, hub.rooms[1], 1)
	_, ok := hub.rooms[1][bystander]
	assert.True(t, ok)
}

func TestHubCloseRoomClosesEveryone(t *testing.T) {
	hub := NewHub()
	a, b := &fakeConn{}, &fakeConn{}
	hub.Subscribe(1, a, ConnInfo{UserID: 1})
	hub.Subscribe(1, b, ConnInfo{UserID: 2})

	hub.CloseRoom(1)

	assert.True(t, a.closed)
	assert.True(t, b.closed)
	assert.Len(t, hub.rooms, 0)
}

func TestHubConcurrentSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			conn := &fakeConn{}
			hub.Subscribe(1, conn, ConnInfo{UserID: i})
			hub.Broadcast(1, models.ChatEvent{Type: "message", Message: &models.Message{ID: i, ChatID: 1}})
			hub.Unsubscribe(1, conn)
		}(i)
	}
	wg.Wait()

	assert.Len(t, hub.rooms, 0)
}
