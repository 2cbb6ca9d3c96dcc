package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/scratchpos/lottery-services/internal/comm"
	"github.com/scratchpos/lottery-services/internal/lanesvc/broker"
)

// Ws tracks the open lane-terminal connections by socketId and relays
// their scan traffic to the pack service.
type Ws struct {
	connMap sync.Map // socketId -> *websocket.Conn
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage handles one message from a lane terminal. Scan traffic
// is forwarded as-is; the pack service owns classification.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "scan-key", "scan-paste", "scan-submit", "lane-heartbeat":
		s.forward(socketId, message)
	default:
		log.Warnf("unknown lane event received: %s", message.Type)
	}
}

func (s *Ws) forward(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(comm.SubjectLane, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", comm.SubjectLane, err)
	}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	s.connMap.Store(socketId, conn)
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	conn, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return conn.(*websocket.Conn), true
}

// HandleDisconnect drops the connection and tells the pack service to
// discard any detector sessions for it.
func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)

	data, err := json.Marshal(comm.LaneClosed{SocketId: socketId})
	if err != nil {
		return
	}
	bytes, err := json.Marshal(comm.WSMessage{
		Type:     "lane-closed",
		Data:     data,
		SocketId: socketId,
	})
	if err != nil {
		return
	}
	if err := s.Broker.Publish(comm.SubjectLane, bytes); err != nil {
		log.Errorf("Failed to publish lane-closed for %s: %v", socketId, err)
	}
}
