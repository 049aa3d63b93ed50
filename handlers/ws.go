package handlers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/sirupsen/logrus"
)

// WSHandler owns the melody hub used for real-time push to family members.
// Sessions are tagged with the family and user they belong to; broadcasts
// are filtered on those tags.
type WSHandler struct {
	M   *melody.Melody
	log *logrus.Logger
}

// WSEvent is the envelope for every pushed event
type WSEvent struct {
	Type     string      `json:"type"`
	FamilyID string      `json:"family_id"`
	Payload  interface{} `json:"payload,omitempty"`
}

func NewWSHandler(log *logrus.Logger) *WSHandler {
	m := melody.New()

	m.Config.MaxMessageSize = 1024 * 1024
	m.Config.PingPeriod = 30 * time.Second
	m.Config.PongWait = 60 * time.Second

	h := &WSHandler{M: m, log: log}

	m.HandleDisconnect(func(s *melody.Session) {
		familyID, _ := s.Get("family_id")
		log.WithField("family_id", familyID).Debug("websocket client disconnected")
	})

	m.HandleError(func(s *melody.Session, err error) {
		log.WithError(err).Warn("websocket error")
	})

	// Client-originated events (user:typing, message:read, chat:join/leave)
	// are relayed to the rest of the family as-is.
	m.HandleMessage(func(s *melody.Session, msg []byte) {
		familyID, ok := s.Get("family_id")
		if !ok {
			return
		}
		var event WSEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			return
		}
		switch event.Type {
		case "user:typing", "message:read", "chat:join", "chat:leave":
			h.broadcastRaw(familyID.(string), s, msg)
		}
	})

	return h
}

// HandleWS upgrades the request and tags the session with family and user
func (h *WSHandler) HandleWS(c *gin.Context) {
	familyID := c.Param("familyId")
	userID := c.GetString("user_id")

	if err := h.M.HandleRequestWithKeys(c.Writer, c.Request, map[string]interface{}{
		"family_id": familyID,
		"user_id":   userID,
	}); err != nil {
		h.log.WithError(err).Warn("failed to upgrade websocket")
	}
}

// Broadcast pushes an event to every session attached to the family
func (h *WSHandler) Broadcast(familyID, eventType string, payload interface{}) {
	msg, err := json.Marshal(WSEvent{Type: eventType, FamilyID: familyID, Payload: payload})
	if err != nil {
		h.log.WithError(err).Warn("failed to marshal websocket event")
		return
	}

	err = h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		id, exists := s.Get("family_id")
		return exists && id == familyID
	})
	if err != nil {
		h.log.WithError(err).WithField("family_id", familyID).Warn("websocket broadcast failed")
	}
}

// BroadcastToUser pushes an event to one member's sessions only
func (h *WSHandler) BroadcastToUser(familyID, userID, eventType string, payload interface{}) {
	msg, err := json.Marshal(WSEvent{Type: eventType, FamilyID: familyID, Payload: payload})
	if err != nil {
		return
	}

	h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		fid, ok1 := s.Get("family_id")
		uid, ok2 := s.Get("user_id")
		return ok1 && ok2 && fid == familyID && uid == userID
	})
}

func (h *WSHandler) broadcastRaw(familyID string, sender *melody.Session, msg []byte) {
	h.M.BroadcastFilter(msg, func(s *melody.Session) bool {
		if s == sender {
			return false
		}
		id, exists := s.Get("family_id")
		return exists && id == familyID
	})
}
