package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"complaintdesk/backend/internal/feed"
	"complaintdesk/backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, hub *feed.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, hub.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func event(id string) models.ComplaintEvent {
	return models.ComplaintEvent{Type: models.EventSubmitted, TrackingID: id, Status: models.StatusPending, At: time.Now()}
}

func receive(t *testing.T, ch <-chan models.ComplaintEvent) models.ComplaintEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return models.ComplaintEvent{}
	}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := feed.NewHub(nil)
	startHub(t, hub)

	client := newMockClient("admin-1", 1)
	require.True(t, hub.Register(client))
	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(client)
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, client.IsClosed())
}

func TestHub_BroadcastsInProcess(t *testing.T) {
	hub := feed.NewHub(nil)
	startHub(t, hub)

	a := newMockClient("a", 4)
	b := newMockClient("b", 4)
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), event("CMP-100001"))

	assert.Equal(t, "CMP-100001", receive(t, a.RecvChannel).TrackingID)
	assert.Equal(t, "CMP-100001", receive(t, b.RecvChannel).TrackingID)
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub := feed.NewHub(nil)
	startHub(t, hub)

	slow := newMockClient("slow", 0)
	require.True(t, hub.Register(slow))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), event("CMP-100001"))

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 10*time.Millisecond)
	assert.True(t, slow.IsClosed())
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := feed.NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = hub.Run(ctx)
	}()

	client := newMockClient("a", 1)
	require.True(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	assert.True(t, client.IsClosed())
	assert.False(t, hub.Register(newMockClient("late", 1)), "a stopped hub refuses clients")
	hub.Unregister(client) // must not block
}

func TestHub_FansOutThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	newClient := func() *redis.Client {
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		return rdb
	}

	// Two instances sharing one Redis.
	publisher := feed.NewHub(newClient())
	subscriber := feed.NewHub(newClient())
	startHub(t, publisher)
	startHub(t, subscriber)

	client := newMockClient("remote-admin", 4)
	require.True(t, subscriber.Register(client))
	require.Eventually(t, func() bool { return subscriber.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("complaints:events")["complaints:events"] == 2
	}, time.Second, 10*time.Millisecond)

	publisher.Publish(context.Background(), event("CMP-200002"))

	ev := receive(t, client.RecvChannel)
	assert.Equal(t, "CMP-200002", ev.TrackingID)
	assert.Equal(t, models.EventSubmitted, ev.Type)
}

func TestWebSocketClient_ReceivesEvents(t *testing.T) {
	hub := feed.NewHub(nil)
	startHub(t, hub)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := feed.NewWebSocketClient(hub, conn, "admin-1")
		if hub.Register(client) {
			client.Run()
		}
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(context.Background(), event("CMP-300003"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got models.ComplaintEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "CMP-300003", got.TrackingID)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_PublishSurvivesCancelledCaller(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	hub := feed.NewHub(rdb)
	startHub(t, hub)

	client := newMockClient("admin", 4)
	require.True(t, hub.Register(client))
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("complaints:events")["complaints:events"] == 1
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Publish(ctx, event("CMP-400004"))

	ev := receive(t, client.RecvChannel)
	assert.Equal(t, "CMP-400004", ev.TrackingID)
}
