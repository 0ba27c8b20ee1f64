// Package httpapi exposes the publication lookup over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/purelit/pure-publications/internal/logger"
	"github.com/purelit/pure-publications/internal/service"
)

const (
	HeaderRequestID = "X-Request-Id"

	missingDOIBody = "Missing DOI parameter"
)

// Resolver resolves a DOI to a publication record; *service.Service satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, doi string, noCache bool) (service.Result, error)
}

// Options configures optional routes.
type Options struct {
	// Metrics is served at /metrics when set.
	Metrics http.Handler
	Logger  logger.Logger
}

// NewRouter builds the gin engine. The lookup is mounted at "/" and "/publications".
func NewRouter(res Resolver, opts Options) *gin.Engine {
	log := logger.Ensure(opts.Logger)
	h := &handler{resolver: res, log: log}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), cors())

	for _, path := range []string{"/", "/publications"} {
		r.GET(path, h.lookup)
		r.OPTIONS(path, preflight)
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}
	return r
}

type handler struct {
	resolver Resolver
	log      logger.Logger
}

func (h *handler) lookup(c *gin.Context) {
	doi := strings.TrimSpace(c.Query("doi"))
	if doi == "" {
		c.Data(http.StatusBadRequest, "application/json", []byte(missingDOIBody))
		return
	}
	noCache := c.Query("noCache") == "true"

	res, err := h.resolver.Resolve(c.Request.Context(), doi, noCache)
	if err != nil {
		if errors.Is(err, service.ErrMissingDOI) {
			c.Data(http.StatusBadRequest, "application/json", []byte(missingDOIBody))
			return
		}
		h.log.ErrorObj("publication lookup failed", "http_error", map[string]any{
			"request_id": c.GetString(requestIDKey),
			"doi":        doi,
			"error":      err.Error(),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, res.Record)
}

// preflight stops CORS preflight requests before any parameter handling.
func preflight(c *gin.Context) {
	c.AbortWithStatus(http.StatusNoContent)
}

const requestIDKey = "request_id"

// requestID tags every request with a uuid, echoed in X-Request-Id and carried in the
// request context for the service log line.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// cors sets the response headers every route and outcome carries.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", http.MethodGet)
		c.Header("Content-Type", "application/json")
		c.Next()
	}
}
