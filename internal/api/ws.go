package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sprite-ai/adaptsim/internal/review"
	"github.com/sprite-ai/adaptsim/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 64,
	WriteBufferSize: 1024 * 64,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocket message types from client.
const (
	wsMsgStart    = "start"
	wsMsgAttach   = "attach"
	wsMsgRespond  = "respond"
	wsMsgTestRun  = "test_run"
	wsMsgReReview = "rereview"
	wsMsgResolve  = "resolve"
	wsMsgDismiss  = "dismiss"
	wsMsgApprove  = "approve"
	wsMsgMerge    = "merge"
)

// WebSocket message types to client.
const (
	wsMsgState    = "state"
	wsMsgRejected = "rejected"
	wsMsgError    = "error"
)

// wsMessage is the envelope for WebSocket messages in both directions.
type wsMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// wsAttach binds the connection to an existing session.
type wsAttach struct {
	ID string `json:"id"`
}

// wsThreadMsg is the payload for resolve and dismiss messages.
type wsThreadMsg struct {
	ThreadID string `json:"thread_id"`
}

// wsRejected is sent when a transition's precondition fails.
type wsRejected struct {
	Reason  review.Reason `json:"reason"`
	Message string        `json:"message"`
	Version int           `json:"version"`
}

// handleWebSocket drives one review session per connection. The client
// starts or attaches to a session and then sends lifecycle actions; every
// accepted action is answered with the full session snapshot.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	var id string
	lc := s.sessions.Lifecycle()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read", zap.Error(err))
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.sendWSError(conn, "invalid message: "+err.Error())
			continue
		}

		switch msg.Type {
		case wsMsgStart:
			var req createReviewRequest
			if err := decodeData(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid start payload: "+err.Error())
				continue
			}
			sess, err := s.sessions.Start(session.StartRequest{Role: req.Role, Level: req.Level, Diff: req.Diff, Seed: req.Seed})
			if err != nil {
				s.sendWSFailure(conn, err, nil)
				continue
			}
			id = sess.ID
			s.sendWSMessage(conn, wsMsgState, sess)

		case wsMsgAttach:
			var req wsAttach
			if err := decodeData(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid attach payload: "+err.Error())
				continue
			}
			sess, err := s.sessions.Store().Get(req.ID)
			if err != nil {
				s.sendWSFailure(conn, err, nil)
				continue
			}
			id = sess.ID
			s.sendWSMessage(conn, wsMsgState, sess)

		case wsMsgRespond:
			var req responseRequest
			if err := decodeData(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid respond payload: "+err.Error())
				continue
			}
			s.wsApply(conn, id, req.expect(), func(st review.State) (review.State, error) {
				return lc.RecordUserResponse(st, req.ThreadID, req.Response)
			})

		case wsMsgTestRun:
			var req testRunRequest
			if err := decodeData(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid test_run payload: "+err.Error())
				continue
			}
			s.wsApply(conn, id, req.expect(), func(st review.State) (review.State, error) {
				return lc.RecordTestRun(st, req.Passed)
			})

		case wsMsgResolve, wsMsgDismiss:
			var req wsThreadMsg
			if err := decodeData(msg.Data, &req); err != nil {
				s.sendWSError(conn, "invalid thread payload: "+err.Error())
				continue
			}
			fn := lc.ResolveThread
			if msg.Type == wsMsgDismiss {
				fn = lc.DismissThread
			}
			s.wsApply(conn, id, -1, func(st review.State) (review.State, error) {
				return fn(st, req.ThreadID)
			})

		case wsMsgReReview:
			s.wsApply(conn, id, -1, lc.RequestReReview)

		case wsMsgApprove:
			s.wsApply(conn, id, -1, lc.Approve)

		case wsMsgMerge:
			s.wsApply(conn, id, -1, lc.Merge)

		default:
			s.sendWSError(conn, "unknown message type: "+msg.Type)
		}
	}
}

func (s *Server) wsApply(conn *websocket.Conn, id string, version int, fn session.Transition) {
	if id == "" {
		s.sendWSError(conn, "no session; send start or attach first")
		return
	}
	sess, err := s.sessions.Store().Apply(id, version, fn)
	if err != nil {
		var cur *session.Session
		if !errors.Is(err, session.ErrNotFound) {
			cur = &sess
		}
		s.sendWSFailure(conn, err, cur)
		return
	}
	s.sendWSMessage(conn, wsMsgState, sess)
}

// decodeData decodes an optional message payload.
func decodeData(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func (s *Server) sendWSFailure(conn *websocket.Conn, err error, current *session.Session) {
	if r, ok := review.AsRejection(err); ok {
		msg := wsRejected{Reason: r.Reason, Message: r.Message}
		if current != nil {
			msg.Version = current.Version
		}
		s.sendWSMessage(conn, wsMsgRejected, msg)
		return
	}
	s.sendWSError(conn, err.Error())
}

func (s *Server) sendWSMessage(conn *websocket.Conn, msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("websocket marshal", zap.Error(err))
		return
	}
	msg := wsMessage{Type: msgType, Data: raw}
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Warn("websocket write", zap.Error(err))
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, errMsg string) {
	s.sendWSMessage(conn, wsMsgError, map[string]string{"error": errMsg})
}
