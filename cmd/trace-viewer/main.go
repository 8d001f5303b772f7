package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shikigami/battle-server-go/internal/config"
	"github.com/shikigami/battle-server-go/internal/game"
	"github.com/shikigami/battle-server-go/internal/game/heroes"
	"github.com/shikigami/battle-server-go/internal/logging"
	"go.uber.org/zap"
)

var configPath = flag.String("config", "config/config.yaml", "path to configuration file")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local debugging tool
	},
}

// WSMessage is the envelope of every frame in both directions.
type WSMessage struct {
	Type string `json:"type"`
	Seed *int64 `json:"seed,omitempty"`
	Data any    `json:"data,omitempty"`
}

// Result closes a streamed battle.
type Result struct {
	BattleID string `json:"battle_id"`
	Winner   int    `json:"winner"`
	Turns    int    `json:"turns"`
	Checksum string `json:"checksum,omitempty"`
	Error    string `json:"error,omitempty"`
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
	stop chan struct{}
	once sync.Once
}

func (c *Client) close() {
	c.once.Do(func() { close(c.stop) })
}

// Hub streams one battle per client. Battles are never shared; each client
// owns its own.
type Hub struct {
	cfg    *config.Config
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*Client]bool
}

func newHub(cfg *config.Config, logger *zap.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		c.close()
	}
}

func (h *Hub) handleMessage(client *Client, msg WSMessage) {
	h.logger.Debug("received message", zap.String("type", msg.Type))

	switch msg.Type {
	case "start":
		opts := h.cfg.Battle.Options()
		if msg.Seed != nil {
			opts.Seed = *msg.Seed
		}
		go h.stream(client, opts)
	default:
		h.logger.Warn("unknown message type", zap.String("type", msg.Type))
	}
}

// stream advances a fresh battle and sends the task tree after every step.
func (h *Hub) stream(client *Client, opts game.Options) {
	battle := game.NewBattle(opts, heroes.Default(), h.cfg.Roster, h.logger)
	h.logger.Info("streaming battle",
		zap.String("battle_id", battle.ID().String()),
		zap.Int64("seed", opts.Seed),
	)

	var ticker <-chan time.Time
	if h.cfg.Trace.StepInterval > 0 {
		t := time.NewTicker(h.cfg.Trace.StepInterval)
		defer t.Stop()
		ticker = t.C
	}

	result := Result{BattleID: battle.ID().String()}
	idle := 0
	for steps := 0; h.cfg.Battle.MaxSteps == 0 || steps < h.cfg.Battle.MaxSteps; steps++ {
		if ticker != nil {
			select {
			case <-ticker:
			case <-client.stop:
				return
			}
		}

		before := battle.Scheduler().Executed()
		finished, err := battle.Advance()
		if err != nil {
			result.Error = err.Error()
			break
		}
		if !h.send(client, WSMessage{Type: "dump", Data: battle.Dump()}) {
			return
		}
		if finished {
			break
		}
		if battle.Scheduler().Executed() == before {
			if idle++; idle >= opts.StallLimit {
				result.Error = fmt.Sprintf("%v at task %s", game.ErrBattleStalled, battle.Scheduler().CurrentType())
				break
			}
		} else {
			idle = 0
		}
	}

	result.Winner = battle.Winner()
	result.Turns = battle.Turn()
	if sum, err := battle.Snapshot().ComputeChecksum(); err == nil {
		result.Checksum = sum.Hash
	}
	h.send(client, WSMessage{Type: "result", Data: result})
}

func (h *Hub) send(client *Client, msg WSMessage) bool {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode message", zap.Error(err))
		return false
	}
	select {
	case client.send <- payload:
		return true
	case <-client.stop:
		return false
	}
}

// serveResult runs the battle of the seed in the path to completion and
// writes its Result without streaming.
func (h *Hub) serveResult(w http.ResponseWriter, r *http.Request) {
	seed, err := strconv.ParseInt(mux.Vars(r)["seed"], 10, 64)
	if err != nil {
		http.Error(w, "invalid seed", http.StatusBadRequest)
		return
	}
	opts := h.cfg.Battle.Options()
	opts.Seed = seed

	battle := game.NewBattle(opts, heroes.Default(), h.cfg.Roster, h.logger)
	result := Result{BattleID: battle.ID().String()}
	if err := battle.Run(r.Context(), h.cfg.Battle.MaxSteps); err != nil {
		result.Error = err.Error()
	}
	result.Winner = battle.Winner()
	result.Turns = battle.Turn()
	if sum, err := battle.Snapshot().ComputeChecksum(); err == nil {
		result.Checksum = sum.Hash
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Warn("failed to write result", zap.Error(err))
	}
}

func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			hub.logger.Warn("error unmarshaling message", zap.Error(err))
			continue
		}

		hub.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case message := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.close()
				return
			}
		case <-c.stop:
			return
		}
	}
}

func serveWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		stop: make(chan struct{}),
	}

	hub.register(client)

	go client.writePump()
	go client.readPump(hub)
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	hub := newHub(cfg, logger)

	router := mux.NewRouter()
	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, w, r)
	})
	router.HandleFunc("/battles/{seed:[0-9]+}", hub.serveResult).Methods(http.MethodGet)

	logger.Info("trace viewer starting",
		zap.String("address", cfg.Trace.Address),
		zap.Duration("step_interval", cfg.Trace.StepInterval),
	)

	if err := http.ListenAndServe(cfg.Trace.Address, router); err != nil {
		logger.Fatal("ListenAndServe failed", zap.Error(err))
	}
}
