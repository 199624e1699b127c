package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/contextualspace/canvas-backend/internal/canvas"
)

// Dependencies wires the HTTP surface to the store and session protocol.
type Dependencies struct {
	Store          *canvas.Store
	Protocol       *Protocol
	Logger         *zap.Logger
	AllowedOrigins []string
}

// NewHTTPHandler builds the gin router: health check, note read API, and the
// websocket session endpoint.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Store == nil {
		return nil, errMissingStore
	}
	if deps.Protocol == nil {
		return nil, errMissingProtocol
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		store:    deps.Store,
		protocol: deps.Protocol,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
	}

	router.GET("/health", handler.handleHealth)
	router.GET("/notes", handler.handleListNotes)
	router.GET("/ws", handler.handleWebsocket)

	return router, nil
}

type httpHandler struct {
	store    *canvas.Store
	protocol *Protocol
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleListNotes returns the note list, filtered through the visibility
// derivation when a viewer participant id is supplied.
func (h *httpHandler) handleListNotes(c *gin.Context) {
	viewer := c.Query("viewer")
	var notes []canvas.Note
	if viewer == "" {
		notes = h.store.ListNotes()
	} else {
		notes = h.store.VisibleNotes(viewer)
	}
	c.JSON(http.StatusOK, gin.H{"notes": notes})
}

func (h *httpHandler) handleWebsocket(c *gin.Context) {
	socket, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	wsc := newWSClient(uuid.NewString(), socket, h.logger)
	h.protocol.HandleConnect(wsc)
	go wsc.writePump()
	wsc.readPump(h.protocol)
}

func originChecker(origins []string) func(*http.Request) bool {
	for _, origin := range origins {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}
