// File: screenlink/handlers/handlers.go
package handlers

import (
	"net/http"

	"screenlink/services/mirror"
	"screenlink/services/registry"
	"screenlink/services/relay"

	"go.uber.org/zap"
)

// Handler bundles the dependencies of the HTTP and websocket surface.
type Handler struct {
	Store  *registry.Store
	Relay  *relay.Service
	Hub    *Hub
	Mirror mirror.Mirror
	Logger *zap.Logger
}

func NewHandler(store *registry.Store, rly *relay.Service, hub *Hub, m mirror.Mirror, logger *zap.Logger) *Handler {
	return &Handler{
		Store:  store,
		Relay:  rly,
		Hub:    hub,
		Mirror: m,
		Logger: logger,
	}
}

// statusFor maps registry error codes onto HTTP status codes.
func statusFor(err error) int {
	switch registry.CodeOf(err) {
	case registry.CodeValidation:
		return http.StatusBadRequest
	case registry.CodeNotFound, registry.CodeUnknownSession:
		return http.StatusNotFound
	case registry.CodeAlreadyBound, registry.CodePeerUnavailable, registry.CodeNotAMember:
		return http.StatusConflict
	case registry.CodePeerUnreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
