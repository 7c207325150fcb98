package paper

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/juliaizbroke/SeniorProject1-sub000/pkg/http/ws"
)

// NewWSHandler upgrades GET /ws/sessions/{sessionID} and subscribes the
// connection to that session's push events until the peer disconnects.
func NewWSHandler(hub *ws.Hub, upgrader websocket.Upgrader, logger zerolog.Logger) http.HandlerFunc {
	log := logger.With().Str("component", "paper_ws").Logger()

	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
		if err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		raw, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		conn := ws.NewConnection(raw, log)
		hub.Subscribe(sessionID, conn)
		log.Info().Str("session_id", sessionID.String()).
			Int("subscribers", hub.SubscriberCount(sessionID)).
			Msg("view watching session")

		go conn.WritePump()
		conn.ReadPump(func() {
			if msg, err := ws.NewMessage(ws.TypePong, nil); err == nil {
				_ = conn.Send(msg)
			}
		})

		hub.Unsubscribe(sessionID, conn)
	}
}
