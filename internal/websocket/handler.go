package websocket

import (
	"log"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/pluspoint/pluspoint/internal/auth"
	"github.com/pluspoint/pluspoint/internal/model"
)

// HandleWebSocket upgrades connections to WebSocket and runs them as hub
// clients. The topics a connection may subscribe to are derived from the
// authenticated profile: a child sees their own subtrees plus their parent's
// shop; a parent sees their own.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Allow connections from any origin (household LAN)
		})
		if err != nil {
			log.Printf("websocket: accept: %v", err)
			return
		}

		client := NewClient(hub, conn, allowedTopics(ac))
		client.Run(r.Context())
	}
}

func allowedTopics(ac auth.AuthContext) []string {
	if ac.Role == model.RoleChild {
		return []string{
			ProfileTopic(ac.ProfileID),
			ChildTasksTopic(ac.ProfileID),
			PurchasesTopic(ac.ProfileID),
			ShopTopic(ac.ParentID),
		}
	}
	return []string{
		ProfileTopic(ac.ProfileID),
		ParentTasksTopic(ac.ProfileID),
		ShopTopic(ac.ProfileID),
		NotificationsTopic(ac.ProfileID),
	}
}
