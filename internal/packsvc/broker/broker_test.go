package broker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchpos/lottery-services/internal/comm"
	"github.com/scratchpos/lottery-services/internal/packsvc/scanguard"
)

func heartbeatMsg(t *testing.T, socketId string, ts time.Time) *nats.Msg {
	t.Helper()
	data, err := json.Marshal(comm.LaneHeartbeat{SocketId: socketId, Timestamp: ts})
	require.NoError(t, err)
	env, err := json.Marshal(comm.WSMessage{Type: "lane-heartbeat", Data: data, SocketId: socketId})
	require.NoError(t, err)
	return &nats.Msg{Data: env}
}

func TestExpireIdleSessions(t *testing.T) {
	b := NewBroker(nil, nil, nil, scanguard.DefaultPolicy())
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	b.detector(sessionKey{socketId: "lane-1", field: "dayclose-barcode"})
	b.detector(sessionKey{socketId: "lane-2", field: "dayclose-barcode"})

	b.handleMessage(heartbeatMsg(t, "lane-1", base))
	b.handleMessage(heartbeatMsg(t, "lane-2", base.Add(4*time.Minute)))

	assert.Zero(t, b.ExpireIdleSessions(5*time.Minute, base.Add(time.Minute)))

	// lane-1 went quiet; lane-2 heartbeated recently enough to survive.
	dropped := b.ExpireIdleSessions(5*time.Minute, base.Add(6*time.Minute))
	assert.Equal(t, 1, dropped)

	b.mu.Lock()
	defer b.mu.Unlock()
	_, stillThere := b.sessions[sessionKey{socketId: "lane-1", field: "dayclose-barcode"}]
	assert.False(t, stillThere, "idle lane session dropped")
	_, kept := b.sessions[sessionKey{socketId: "lane-2", field: "dayclose-barcode"}]
	assert.True(t, kept, "heartbeating lane session kept")
}

func TestLaneClosedDropsAllFieldSessions(t *testing.T) {
	b := NewBroker(nil, nil, nil, scanguard.DefaultPolicy())

	b.detector(sessionKey{socketId: "lane-1", field: "dayclose-barcode"})
	b.detector(sessionKey{socketId: "lane-1", field: "receive-barcode"})
	b.detector(sessionKey{socketId: "lane-2", field: "dayclose-barcode"})

	data, err := json.Marshal(comm.LaneClosed{SocketId: "lane-1"})
	require.NoError(t, err)
	env, err := json.Marshal(comm.WSMessage{Type: "lane-closed", Data: data, SocketId: "lane-1"})
	require.NoError(t, err)
	b.handleMessage(&nats.Msg{Data: env})

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Len(t, b.sessions, 1)
	_, kept := b.sessions[sessionKey{socketId: "lane-2", field: "dayclose-barcode"}]
	assert.True(t, kept)
}
