// routes.go - Route registration helpers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MiddlewareOptions configures SetupMiddleware.
type MiddlewareOptions struct {
	RequestLogging bool
	EnableCORS     bool
	AllowOrigins   []string
	BodyLimit      string
}

// RegisterRoutes registers all API routes with the Echo instance. hub may
// be nil, in which case no event socket is served.
func RegisterRoutes(e *echo.Echo, h *Handler, hub *EventHub) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", h.HandleHealth)

	if hub != nil {
		apiGroup.GET("/ws/events", hub.HandleWebSocket)
	}

	// Documents and their views
	docs := apiGroup.Group("/documents")
	docs.GET("", h.HandleListDocuments)
	docs.POST("", h.HandleOpenDocument)
	docs.GET("/:id", h.HandleGetDocument)
	docs.DELETE("/:id", h.HandleCloseDocument)
	docs.GET("/:id/snapshot", h.HandleDocumentSnapshot)
	docs.POST("/:id/views", h.HandleAddView)
	docs.DELETE("/:id/views/:viewId", h.HandleCloseView)
	docs.PUT("/:id/views/:viewId/minimized", h.HandleSetMinimized)
	docs.PUT("/:id/watched", h.HandleSetWatched)
	docs.PUT("/:id/scroll", h.HandleScroll)
	docs.PUT("/:id/settings", h.HandleUpdateSettings)

	// Group codec
	apiGroup.POST("/groups/decode", h.HandleDecodeGroup)
	apiGroup.POST("/groups/encode", h.HandleEncodeGroup)

	// Preferences
	apiGroup.GET("/recent", h.HandleRecentGroups)
	apiGroup.GET("/preferences", h.HandleGetPreferences)
	apiGroup.PUT("/preferences/window", h.HandleSetWindow)
	apiGroup.POST("/preferences/save", h.HandleSavePreferences)

	// Dataset summaries
	apiGroup.GET("/datasets", h.HandleListDatasets)
	apiGroup.POST("/datasets", h.HandleIngestDataset)
	apiGroup.DELETE("/datasets", h.HandleDeleteDataset)

	// Workspace files
	apiGroup.GET("/workspace", h.HandleExportWorkspace)
	apiGroup.PUT("/workspace", h.HandleImportWorkspace)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !opts.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				path == "/metrics" ||
				strings.HasPrefix(path, "/api/ws/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 * 1024,
	}))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := opts.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
