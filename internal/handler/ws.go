package handler

import (
	"net/http"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/court-club-reservation/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served to known club frontends; origin policy is
	// enforced at the gateway.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHandler upgrades GET /ws connections and registers them with the hub.
// Browsers cannot set an Authorization header on websocket upgrades, so the
// access token is carried in the "token" query parameter instead.
type WSHandler struct {
	Hub    *ws.Hub
	Secret string
}

// NewWSHandler constructs a WSHandler.
func NewWSHandler(hub *ws.Hub, secret string) *WSHandler {
	if hub == nil {
		panic("nil hub passed to NewWSHandler")
	}
	return &WSHandler{Hub: hub, Secret: secret}
}

// Serve handles GET /ws?token=... by validating the token, upgrading the
// connection and handing it to the hub.  The connection then receives the
// same slot and booking events the broker publishes.
func (h *WSHandler) Serve(c echo.Context) error {
	memberID, err := h.memberFromToken(c.QueryParam("token"))
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
	}
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		return nil
	}
	h.Hub.Register(memberID, conn)
	return nil
}

func (h *WSHandler) memberFromToken(raw string) (uint64, error) {
	if raw == "" {
		return 0, echo.ErrUnauthorized
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(h.Secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, echo.ErrUnauthorized
	}
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(sub, 10, 64)
		if err != nil || id == 0 {
			return 0, echo.ErrUnauthorized
		}
		return id, nil
	case float64:
		if sub <= 0 {
			return 0, echo.ErrUnauthorized
		}
		return uint64(sub), nil
	default:
		return 0, echo.ErrUnauthorized
	}
}
