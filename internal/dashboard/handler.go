package dashboard

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"
)

// Handler turns sync engine events into dashboard messages. It satisfies
// the engine's EventSink interface and keeps running totals per data
// kind so a freshly connected client can catch up from the stats frame.
type Handler struct {
	server *Server
	logger *log.Logger

	// Statistics tracking. Engine events arrive from several goroutines.
	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(os.Stderr, "[dashboard] ", log.LstdFlags)
	}

	return &Handler{
		server: server,
		logger: logger,
		stats: StatsData{
			Pushed: make(map[string]int),
			Queued: make(map[string]int),
		},
	}
}

// SyncPushed handles a successful remote push for a data kind
func (h *Handler) SyncPushed(kind string) {
	h.mu.Lock()
	h.stats.Pushed[kind]++
	h.mu.Unlock()

	h.broadcastEvent(MessageTypeSyncPushed, SyncEventData{Kind: kind})
	h.broadcastStats()
}

// SyncQueued handles a failed push that was parked for replay
func (h *Handler) SyncQueued(kind string) {
	h.logger.Printf("Queued %s for replay", kind)

	h.mu.Lock()
	h.stats.Queued[kind]++
	h.mu.Unlock()

	h.broadcastEvent(MessageTypeSyncQueued, SyncEventData{Kind: kind})
	h.broadcastStats()
}

// DrainComplete handles the end of a queue drain pass
func (h *Handler) DrainComplete(executed, failed int) {
	h.logger.Printf("Drain complete: %d executed, %d failed", executed, failed)

	h.mu.Lock()
	h.stats.Drains++
	h.mu.Unlock()

	h.broadcastEvent(MessageTypeDrain, DrainData{Executed: executed, Failed: failed})
	h.broadcastStats()
}

// ConnectivityChanged handles online flag transitions
func (h *Handler) ConnectivityChanged(online bool) {
	h.logger.Printf("Connectivity changed: online=%v", online)

	h.mu.Lock()
	h.stats.Online = online
	h.mu.Unlock()

	h.broadcastEvent(MessageTypeConnectivity, ConnectivityData{Online: online})
	h.broadcastStats()
}

// broadcastEvent marshals one event payload and broadcasts it
func (h *Handler) broadcastEvent(typ MessageType, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal %s data: %v", typ, err)
		return
	}

	h.server.Broadcast(Message{
		Type:      typ,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	dataJSON, err := json.Marshal(h.GetStats())
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// GetStats returns a copy of the current statistics
func (h *Handler) GetStats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := StatsData{
		Pushed: make(map[string]int, len(h.stats.Pushed)),
		Queued: make(map[string]int, len(h.stats.Queued)),
		Drains: h.stats.Drains,
		Online: h.stats.Online,
	}
	for k, v := range h.stats.Pushed {
		out.Pushed[k] = v
	}
	for k, v := range h.stats.Queued {
		out.Queued[k] = v
	}
	return out
}
