package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/loykin/healthmon/internal/state"
)

// Monitor is the read/control surface the API exposes. *monitor.Monitor
// satisfies it; tests plug in fakes.
type Monitor interface {
	Statuses() []state.Record
	Status(name string) (state.Record, bool)
	PendingRetries() []string
	TriggerPass()
}

// Router provides embeddable HTTP handlers for inspecting the monitor.
// Endpoints:
//
//	GET  {basePath}/status    all tracked containers, or ?name= for one
//	GET  {basePath}/retries   containers with a re-check in flight
//	POST {basePath}/check     trigger a probe pass now
//	GET  {basePath}/healthz   liveness
//
// basePath may be empty or start with '/'; no trailing slash.
type Router struct {
	mon      Monitor
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
func NewRouter(mon Monitor, basePath string) *Router {
	return &Router{mon: mon, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.GET("/retries", r.handleRetries)
	group.POST("/check", r.handleCheck)
	group.GET("/healthz", r.handleHealthz)
	return g
}

// NewServer returns a standalone HTTP server on addr using this router.
// The caller owns ListenAndServe / Shutdown.
func NewServer(addr, basePath string, mon Monitor) *http.Server {
	r := NewRouter(mon, basePath)
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type statusResp struct {
	Name      string    `json:"name"`
	Project   string    `json:"project"`
	Status    string    `json:"status"`
	LastCheck time.Time `json:"last_check"`
}

func toStatusResp(rec state.Record) statusResp {
	return statusResp{
		Name:      rec.Name,
		Project:   rec.Project,
		Status:    rec.Status.String(),
		LastCheck: rec.LastCheck,
	}
}

func (r *Router) handleStatus(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		recs := r.mon.Statuses()
		out := make([]statusResp, 0, len(recs))
		for _, rec := range recs {
			out = append(out, toStatusResp(rec))
		}
		c.JSON(http.StatusOK, out)
		return
	}
	if !isSafeName(name) {
		c.JSON(http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-]"})
		return
	}
	rec, ok := r.mon.Status(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResp{Error: "not tracked: " + name})
		return
	}
	c.JSON(http.StatusOK, toStatusResp(rec))
}

func (r *Router) handleRetries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"pending": r.mon.PendingRetries()})
}

func (r *Router) handleCheck(c *gin.Context) {
	r.mon.TriggerPass()
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

func (r *Router) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
