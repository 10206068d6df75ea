package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"

	da "github.com/bussin-buses/trafficwatch/pkg/datastructure"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"
)

// wsClient is one driver's websocket connection. Writes are serialized by
// the io mutex: the hub pushes notifications while the read loop services
// control frames on the same connection.
type wsClient struct {
	io   sync.Mutex
	conn io.ReadWriteCloser

	driverID string
	hub      *NotificationHub
}

func (c *wsClient) write(x interface{}) error {
	w := wsutil.NewWriter(c.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	c.io.Lock()
	defer c.io.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}
	return w.Flush()
}

// NotificationHub keeps the live websocket connections per driver and
// pushes reroute notifications to them as they are recorded. A driver may
// hold several connections (phone plus dashboard); all of them get the
// push.
type NotificationHub struct {
	mu      sync.RWMutex
	clients map[string][]*wsClient
	log     *zap.Logger
}

func NewNotificationHub(log *zap.Logger) *NotificationHub {
	return &NotificationHub{
		clients: make(map[string][]*wsClient),
		log:     log,
	}
}

// ServeWS upgrades the request and keeps the connection registered until
// the peer goes away. Expects ?driverId= on the upgrade request.
func (h *NotificationHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	driverID := r.URL.Query().Get("driverId")
	if driverID == "" {
		http.Error(w, "driverId is required", http.StatusBadRequest)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.String("driver_id", driverID), zap.Error(err))
		return
	}

	client := h.register(driverID, conn)
	h.log.Info("driver connected", zap.String("driver_id", driverID))
	go h.readLoop(client)
}

func (h *NotificationHub) register(driverID string, conn io.ReadWriteCloser) *wsClient {
	client := &wsClient{conn: conn, driverID: driverID, hub: h}
	h.mu.Lock()
	h.clients[driverID] = append(h.clients[driverID], client)
	h.mu.Unlock()
	return client
}

func (h *NotificationHub) remove(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.clients[client.driverID]
	kept := conns[:0]
	for _, c := range conns {
		if c != client {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		delete(h.clients, client.driverID)
	} else {
		h.clients[client.driverID] = kept
	}
}

// readLoop drains the connection: control frames are answered, data frames
// discarded. Clients only listen on this socket.
func (h *NotificationHub) readLoop(client *wsClient) {
	defer func() {
		h.remove(client)
		client.conn.Close()
		h.log.Info("driver disconnected", zap.String("driver_id", client.driverID))
	}()

	for {
		header, reader, err := wsutil.NextReader(client.conn, ws.StateServerSide)
		if err != nil {
			return
		}
		if header.OpCode.IsControl() {
			if err := wsutil.ControlFrameHandler(client.conn, ws.StateServerSide)(header, reader); err != nil {
				return
			}
			continue
		}
		if _, err := io.Copy(io.Discard, reader); err != nil {
			return
		}
	}
}

// Notify pushes the record to every live connection of the target driver.
// A driver without a connection is not an error: the record stays queued in
// the store for the next poll.
func (h *NotificationHub) Notify(ctx context.Context, record da.NotificationRecord) error {
	h.mu.RLock()
	conns := append([]*wsClient(nil), h.clients[record.DriverID]...)
	h.mu.RUnlock()

	if len(conns) == 0 {
		return nil
	}

	payload := envelope{"data": NewNotificationResponse(record)}
	for _, client := range conns {
		if err := client.write(payload); err != nil {
			h.log.Warn("websocket push failed, dropping connection",
				zap.String("driver_id", record.DriverID), zap.Error(err))
			h.remove(client)
			client.conn.Close()
		}
	}
	return nil
}
