package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mselser95/claimpool/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeIndexer accepts feed connections and hands each one to the test after
// reading its subscribe message.
type fakeIndexer struct {
	server *httptest.Server
	conns  chan *websocket.Conn
	subs   chan map[string]string
}

func newFakeIndexer(t *testing.T) *fakeIndexer {
	t.Helper()

	f := &fakeIndexer{
		conns: make(chan *websocket.Conn, 4),
		subs:  make(chan map[string]string, 4),
	}
	upgrader := websocket.Upgrader{}

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		var sub map[string]string
		if conn.ReadJSON(&sub) != nil {
			conn.Close()
			return
		}
		f.subs <- sub
		f.conns <- conn
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeIndexer) url() string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http")
}

func (f *fakeIndexer) next(t *testing.T) *websocket.Conn {
	t.Helper()

	select {
	case conn := <-f.conns:
		t.Cleanup(func() { conn.Close() })
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no feed connection")
		return nil
	}
}

func testConfig(t *testing.T, url string) Config {
	return Config{
		URL:                   url,
		Channel:               "pools",
		DialTimeout:           2 * time.Second,
		PongTimeout:           5 * time.Second,
		PingInterval:          50 * time.Millisecond,
		ReconnectInitialDelay: 10 * time.Millisecond,
		ReconnectMaxDelay:     50 * time.Millisecond,
		ReconnectBackoffMult:  2.0,
		MessageBufferSize:     8,
		Logger:                zaptest.NewLogger(t),
	}
}

func resolvedMessage(poolID uint64) string {
	return fmt.Sprintf(`{"type":"pool_resolved","poolId":%d,
		"pool":{"claimId":%d,"creator":%q,"stance":0,"creatorStake":100,"agreeTotal":0,"disagreeTotal":0,
			"totalStaked":100,"resolved":true,"creatorWasCorrect":true},
		"claim":{"id":%d,"resolved":true,"outcome":"yes"},
		"stakes":[]}`, poolID, poolID+100, testutil.Creator.Hex(), poolID+100)
}

func receive(t *testing.T, s *Subscriber) uint64 {
	t.Helper()

	select {
	case event := <-s.Events():
		require.NotNil(t, event)
		return event.PoolID
	case <-time.After(5 * time.Second):
		t.Fatal("no resolution event")
		return 0
	}
}

func TestSubscriber_DeliversResolutionEvents(t *testing.T) {
	indexer := newFakeIndexer(t)
	sub := New(testConfig(t, indexer.url()))
	require.NoError(t, sub.Start())
	defer sub.Close()

	conn := indexer.next(t)
	assert.Equal(t, map[string]string{"type": "subscribe", "channel": "pools"}, <-indexer.subs)
	assert.True(t, sub.IsConnected())
	assert.NoError(t, sub.Check(context.Background()))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(resolvedMessage(7))))
	assert.Equal(t, uint64(7), receive(t, sub))
}

func TestSubscriber_BatchSkipsControlAndInvalid(t *testing.T) {
	indexer := newFakeIndexer(t)
	sub := New(testConfig(t, indexer.url()))
	require.NoError(t, sub.Start())
	defer sub.Close()

	conn := indexer.next(t)
	<-indexer.subs

	batch := `[{"type":"subscribed","channel":"pools"},` +
		`{"type":"pool_resolved","poolId":8,"pool":"garbage","claim":{}},` +
		resolvedMessage(9) + `]`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("[]")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(batch)))

	assert.Equal(t, uint64(9), receive(t, sub))
}

func TestSubscriber_ReconnectsAndResubscribes(t *testing.T) {
	indexer := newFakeIndexer(t)
	sub := New(testConfig(t, indexer.url()))
	require.NoError(t, sub.Start())
	defer sub.Close()

	first := indexer.next(t)
	<-indexer.subs
	first.Close()

	second := indexer.next(t)
	assert.Equal(t, "pools", (<-indexer.subs)["channel"])

	require.NoError(t, second.WriteMessage(websocket.TextMessage, []byte(resolvedMessage(11))))
	assert.Equal(t, uint64(11), receive(t, sub))
}

func TestSubscriber_StartFails(t *testing.T) {
	sub := New(testConfig(t, "ws://127.0.0.1:1/unreachable"))

	err := sub.Start()
	require.Error(t, err)
	assert.False(t, sub.IsConnected())
	assert.True(t, errors.Is(sub.Check(context.Background()), ErrNotConnected))
}

func TestSubscriber_CloseClosesEvents(t *testing.T) {
	indexer := newFakeIndexer(t)
	sub := New(testConfig(t, indexer.url()))
	require.NoError(t, sub.Start())
	indexer.next(t)

	require.NoError(t, sub.Close())

	_, open := <-sub.Events()
	assert.False(t, open)
}
