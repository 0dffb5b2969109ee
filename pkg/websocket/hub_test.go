package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gocomet/bike-sharing/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func register(t *testing.T, hub *Hub, memberID, role string) *Client {
	t.Helper()
	c := NewClient(hub, nil, memberID, role, logger.NewNop())
	hub.Register(c)
	return c
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.GetActiveConnections() == n }, time.Second, 5*time.Millisecond)
}

func received(c *Client) []Message {
	var out []Message
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var msg Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestHub_PublishTargetsInterestedClients(t *testing.T) {
	hub := runHub(t)
	dashboard := register(t, hub, "", RoleDashboard)
	watcher := register(t, hub, "01234567826", RoleMember)
	rider := register(t, hub, "94031820982", RoleMember)
	bystander := register(t, hub, "01234567894", RoleMember)
	waitForClients(t, hub, 4)
	watcher.Subscribe("3")

	sent := hub.Publish(Message{Type: "ride_opened", Data: map[string]int64{"bike_id": 3}}, 3, "94031820982")

	assert.Equal(t, 3, sent)
	assert.Len(t, received(dashboard), 1)
	assert.Len(t, received(watcher), 1)
	assert.Len(t, received(rider), 1)
	assert.Empty(t, received(bystander))
}

func TestHub_PublishDeliversOncePerClient(t *testing.T) {
	hub := runHub(t)
	c := register(t, hub, "94031820982", RoleDashboard)
	waitForClients(t, hub, 1)
	c.Subscribe("3")

	hub.Publish(Message{Type: "ride_closed"}, 3, "94031820982")

	msgs := received(c)
	require.Len(t, msgs, 1)
	assert.Equal(t, "ride_closed", msgs[0].Type)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := runHub(t)
	c := register(t, hub, "", RoleMember)
	waitForClients(t, hub, 1)
	c.Subscribe("5")
	c.Unsubscribe("5")

	assert.Equal(t, 0, hub.Publish(Message{Type: "ride_opened"}, 5, ""))
}

func TestHub_BroadcastAndUnregister(t *testing.T) {
	hub := runHub(t)
	a := register(t, hub, "", RoleDashboard)
	b := register(t, hub, "", RoleMember)
	waitForClients(t, hub, 2)
	assert.Equal(t, 1, hub.GetClientsByRole(RoleDashboard))

	hub.Broadcast(Message{Type: "maintenance"})
	require.Eventually(t, func() bool { return len(a.Send) == 1 && len(b.Send) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(b)
	waitForClients(t, hub, 1)
}

func TestClient_HandleMessage(t *testing.T) {
	c := NewClient(nil, nil, "", RoleMember, logger.NewNop())

	c.handleMessage([]byte(`{"type":"subscribe","entity_id":"9"}`))
	assert.True(t, c.IsSubscribedTo("9"))

	c.handleMessage([]byte(`{"type":"ping"}`))
	c.handleMessage([]byte(`not json`))
	c.handleMessage([]byte(`{"type":"unsubscribe","entity_id":"9"}`))
	assert.False(t, c.IsSubscribedTo("9"))

	msgs := received(c)
	require.Len(t, msgs, 2)
	assert.Equal(t, "subscribed", msgs[0].Type)
	assert.Equal(t, "pong", msgs[1].Type)
}
