// Package httpApi maps the ledger operations onto HTTP. The caller
// identity is taken from the X-Caller header, supplied by whatever
// authenticates requests in front of this service.
package httpApi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"swap_escrow/internal/events"
	"swap_escrow/internal/model"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const callerHeader = "X-Caller"

type Engine interface {
	Initialize(owner, treasury string, feeRateBps uint64) error
	Create(ctx context.Context, caller, receiver, tokenIn, tokenOut string, amountIn uint64) (uint64, error)
	Approve(ctx context.Context, caller string, id uint64) error
	Reject(ctx context.Context, caller string, id uint64) error
	Get(ctx context.Context, id uint64) (model.SwapRequest, error)
}

type server struct {
	engine Engine
	hub    *events.Hub
	router *mux.Router
	log    *logrus.Entry
}

func NewServer(engine Engine, hub *events.Hub) http.Handler {
	s := &server{
		engine: engine,
		hub:    hub,
		router: mux.NewRouter(),
		log:    logrus.WithField("component", "http"),
	}
	s.routes()
	return s.router
}

func (s *server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/initialize", s.handleInitialize).Methods(http.MethodPost)
	s.router.HandleFunc("/requests", s.handleCreate).Methods(http.MethodPost)
	s.router.HandleFunc("/requests/{id:[0-9]+}", s.handleGet).Methods(http.MethodGet)
	s.router.HandleFunc("/requests/{id:[0-9]+}/approve", s.handleApprove).Methods(http.MethodPost)
	s.router.HandleFunc("/requests/{id:[0-9]+}/reject", s.handleReject).Methods(http.MethodPost)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "time": time.Now().UTC()})
}

type initializeRequest struct {
	Owner      string `json:"owner"`
	Treasury   string `json:"treasury"`
	FeeRateBps uint64 `json:"fee_rate_bps"`
}

func (s *server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var body initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := s.engine.Initialize(body.Owner, body.Treasury, body.FeeRateBps); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type createRequest struct {
	Receiver string `json:"receiver"`
	TokenIn  string `json:"token_in"`
	TokenOut string `json:"token_out"`
	AmountIn uint64 `json:"amount_in"`
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "caller required")
		return
	}
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	id, err := s.engine.Create(r.Context(), caller, body.Receiver, body.TokenIn, body.TokenOut, body.AmountIn)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	req, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *server) handleApprove(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Approve)
}

func (s *server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, s.engine.Reject)
}

func (s *server) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, uint64) error) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		writeError(w, http.StatusBadRequest, "caller required")
		return
	}
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), caller, id); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleWS subscribes the connection to one request's notifications, or to
// everything when no request parameter is given.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	topic := events.Firehose
	if raw := r.URL.Query().Get("request"); raw != "" {
		if _, err := strconv.ParseUint(raw, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request id")
			return
		}
		topic = raw
	}

	conn, err := s.hub.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.Subscribe(topic, conn)

	// initial snapshot for per-request subscriptions
	if topic != events.Firehose {
		id, _ := strconv.ParseUint(topic, 10, 64)
		if req, err := s.engine.Get(r.Context(), id); err == nil {
			if err := conn.WriteJSON(req); err != nil {
				s.hub.MarkDead(conn)
				return
			}
		}
	}

	// reader to detect close
	go func() {
		defer s.hub.MarkDead(conn)
		conn.SetReadLimit(512)
		if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			s.log.WithError(err).Error("failed to set read deadline")
			return
		}
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func requestID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return 0, false
	}
	return id, true
}

func (s *server) writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrArithmeticOverflow):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrTransferFailed),
		errors.Is(err, model.ErrInsufficientLiquidity),
		errors.Is(err, model.ErrAlreadyInitialized):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNotInitialized):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.WithError(err).Error("operation failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
