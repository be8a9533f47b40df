package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/sync/semaphore"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/TejAtParkourOps/Airetable/internal/adapter/driving/dto"
	"github.com/TejAtParkourOps/Airetable/internal/application"
)

const maxFrameBytes = 64 << 10

// MaxInFlight is the number of requests one connection may have running at
// once. Further frames are not read until a running request finishes.
const MaxInFlight = 4

type eventHandler func(ctx context.Context, data json.RawMessage) dto.Envelope[any]

// Server serves the websocket RPC endpoint.
type Server struct {
	syncSvc        *application.SyncService
	originPatterns []string
	logger         *slog.Logger
	events         map[string]eventHandler

	// ctx ends every open connection when cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer creates a Server. originPatterns lists the cross-origin hosts
// allowed to connect; same-origin and non-browser clients are always allowed.
func NewServer(syncSvc *application.SyncService, originPatterns []string, logger *slog.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		syncSvc:        syncSvc,
		originPatterns: originPatterns,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}
	s.events = map[string]eventHandler{
		EventSyncBase: s.syncBase,
	}
	return s
}

// RegisterRoutes registers the websocket endpoint on mux.
func RegisterRoutes(mux *http.ServeMux, s *Server) {
	mux.HandleFunc("GET "+Path, s.ServeWS)
}

// Close ends every open connection and cancels the requests running on
// them. Connections accepted afterwards are refused. Register it with
// http.Server.RegisterOnShutdown: Shutdown does not track hijacked
// connections.
func (s *Server) Close() {
	s.cancel()
}

// ServeWS upgrades the connection and serves requests until the peer
// disconnects or the server is closed. Up to MaxInFlight requests on one
// connection are handled concurrently.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	if s.ctx.Err() != nil {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns})
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}
	conn.SetReadLimit(maxFrameBytes)
	s.logger.Debug("rpc client connected", "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	err = s.serve(ctx, conn)
	switch {
	case s.ctx.Err() != nil:
		s.logger.Debug("rpc connection ended by shutdown", "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	case websocket.CloseStatus(err) == websocket.StatusNormalClosure,
		websocket.CloseStatus(err) == websocket.StatusGoingAway:
		s.logger.Debug("rpc client disconnected", "remote", r.RemoteAddr)
	default:
		s.logger.Warn("rpc connection closed", "remote", r.RemoteAddr, "error", err)
	}
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	sem := semaphore.NewWeighted(MaxInFlight)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		typ, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageText {
			s.reply(ctx, conn, dto.Failure(http.StatusBadRequest, "Frames must be JSON text.", "binary frame"))
			continue
		}

		var req Request
		if err := json.Unmarshal(frame, &req); err != nil {
			s.reply(ctx, conn, dto.Failure(http.StatusBadRequest, "Malformed request.", err.Error()))
			continue
		}
		if req.ID == "" || req.Event == "" {
			env := dto.Failure(http.StatusBadRequest, "Malformed request.", "event and id are required")
			env.ID = req.ID
			s.reply(ctx, conn, env)
			continue
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			env := s.dispatch(ctx, req)
			env.ID = req.ID
			s.reply(ctx, conn, env)
		}()
	}
}

func (s *Server) dispatch(ctx context.Context, req Request) dto.Envelope[any] {
	handle, ok := s.events[req.Event]
	if !ok {
		return dto.Failure(http.StatusNotFound, fmt.Sprintf("Unknown event '%s'.", req.Event), "")
	}
	return handle(ctx, req.Data)
}

func (s *Server) syncBase(ctx context.Context, data json.RawMessage) dto.Envelope[any] {
	var req SyncBaseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return dto.Failure(http.StatusBadRequest, "Malformed request.", err.Error())
	}
	if req.AuthToken == "" {
		return dto.Failure(http.StatusUnauthorized, "An Airtable authorization token is required.", "missing authToken")
	}
	if req.BaseID == "" {
		return dto.Failure(http.StatusBadRequest, "An Airtable Base id is required.", "missing baseId")
	}

	base, err := s.syncSvc.SyncBase(ctx, req.AuthToken, req.BaseID)
	if err != nil {
		s.logger.Warn("sync failed", "base_id", req.BaseID, "error", err)
		return dto.FromError(err)
	}
	return dto.Success[any](http.StatusOK, application.MsgBaseFound, dto.FromBase(*base))
}

func (s *Server) reply(ctx context.Context, conn *websocket.Conn, env dto.Envelope[any]) {
	if err := wsjson.Write(ctx, conn, env); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("failed to write rpc reply", "id", env.ID, "error", err)
	}
}
