// Package api exposes the share validator over HTTP: a submission
// endpoint backed by the async worker pool, a debug graph generator, and
// operational surfaces (health, stats, live verdict stream).
package api

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tos-network/powvalidator/internal/config"
	"github.com/tos-network/powvalidator/internal/dedupe"
	"github.com/tos-network/powvalidator/internal/dispatch"
	"github.com/tos-network/powvalidator/internal/newrelic"
	"github.com/tos-network/powvalidator/internal/notify"
	"github.com/tos-network/powvalidator/internal/policy"
	"github.com/tos-network/powvalidator/internal/stream"
	"github.com/tos-network/powvalidator/internal/util"
	"github.com/tos-network/powvalidator/internal/validator"
)

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	cache    *dedupe.Cache
	hub      *stream.Hub
	notifier *notify.Notifier
	nrAgent  *newrelic.Agent
	policy   *policy.PolicyServer

	router *gin.Engine
	server *http.Server

	counters verdictCounters

	statsMu       sync.Mutex
	statsCached   StatsResponse
	statsCachedAt time.Time
}

type verdictCounters struct {
	accepted int64
	rejected int64
	blocks   int64
	errors   int64
}

// NewServer creates an API server wired to the validator's async pool,
// the dedupe cache, the webhook notifier, the abuse-protection policy
// server and the verdict stream hub. Any of cache, hub, notifier, nrAgent,
// policySrv may be nil; their absence only narrows what the server can
// report, announce, or protect against.
func NewServer(cfg *config.Config, cache *dedupe.Cache, hub *stream.Hub, notifier *notify.Notifier, nrAgent *newrelic.Agent, policySrv *policy.PolicyServer) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		cache:    cache,
		hub:      hub,
		notifier: notifier,
		nrAgent:  nrAgent,
		policy:   policySrv,
		router:   router,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(func(c *gin.Context) {
		if origin := s.allowedOrigin(c.Request.Header.Get("Origin")); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	s.router.GET("/healthz", s.handleHealthz)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/shares", s.handleSubmitShare)
		v1.GET("/stats", s.handleStats)
		if s.cfg.API.DebugEnabled {
			v1.GET("/graph", s.handleDebugGraph)
		}
		if s.hub != nil {
			v1.GET("/stream", s.handleStream)
		}
	}
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.API.Bind,
		Handler: s.router,
	}

	util.Infof("API server listening on %s", s.cfg.API.Bind)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			util.Errorf("API server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

// allowedOrigin returns the Access-Control-Allow-Origin value for a request
// Origin header, given cfg.API.CORSOrigins. A configured "*" allows any
// origin; otherwise origin must match an entry exactly. Returns "" when the
// request's origin is not allowed (no CORS header is then set).
func (s *Server) allowedOrigin(requestOrigin string) string {
	for _, allowed := range s.cfg.API.CORSOrigins {
		if allowed == "*" {
			return "*"
		}
		if allowed == requestOrigin && requestOrigin != "" {
			return requestOrigin
		}
	}
	return ""
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// shareRequest is the body of POST /v1/shares.
type shareRequest struct {
	BlockData   string `json:"block_data" binding:"required"`
	Nonce       string `json:"nonce" binding:"required"`
	Path        string `json:"path" binding:"required"`
	JobTarget   string `json:"job_target" binding:"required"`
	BlockTarget string `json:"block_target" binding:"required"`
	BlockHex    string `json:"block_hex"`
}

func (s *Server) handleSubmitShare(c *gin.Context) {
	ip := c.ClientIP()

	if s.policy != nil {
		if s.policy.IsBanned(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "banned"})
			return
		}
		if !s.policy.ApplyConnectionLimit(ip) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limited"})
			return
		}
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if s.policy != nil {
			s.policy.ApplyMalformedPolicy(ip)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.cache != nil {
		key := dedupe.Key(req.BlockData, req.Nonce, req.Path)
		if s.cache.Seen(key, 10*time.Minute) {
			c.JSON(http.StatusOK, &dispatch.Verdict{Type: "share_rejected", Error: "duplicate submission"})
			return
		}
	}

	start := time.Now()
	ch := validator.ValidateShareAsync(validator.Submission{
		BlockData:   req.BlockData,
		Nonce:       req.Nonce,
		Path:        req.Path,
		JobTarget:   req.JobTarget,
		BlockTarget: req.BlockTarget,
		BlockHex:    req.BlockHex,
	})
	verdict := <-ch

	s.recordVerdict(verdict, time.Since(start), ip)
	c.JSON(http.StatusOK, verdict)
}

func (s *Server) recordVerdict(v *dispatch.Verdict, elapsed time.Duration, ip string) {
	if s.policy != nil {
		s.policy.ApplySharePolicy(ip, v.Type == "share_accepted" || v.Type == "block_found")
	}

	switch v.Type {
	case "share_accepted":
		atomic.AddInt64(&s.counters.accepted, 1)
	case "share_rejected":
		atomic.AddInt64(&s.counters.rejected, 1)
	case "block_found":
		atomic.AddInt64(&s.counters.blocks, 1)
		if s.notifier != nil {
			s.notifier.NotifyBlockFound(notify.BlockFoundEvent{
				Hash:   v.Hash,
				Target: v.Target,
				Nonce:  v.Nonce,
			})
		}
		if s.nrAgent != nil {
			s.nrAgent.RecordBlockFound(v.Hash, v.Target)
		}
	default:
		atomic.AddInt64(&s.counters.errors, 1)
	}

	if s.nrAgent != nil {
		s.nrAgent.RecordShareValidated(v.Type, float64(elapsed.Microseconds())/1000.0)
	}
	if v.Type != "share_accepted" && v.Type != "block_found" && s.nrAgent != nil {
		s.nrAgent.RecordRejectedSubmission(v.Error)
	}

	if s.hub != nil {
		s.hub.Broadcast(v)
	}
}

func (s *Server) handleDebugGraph(c *gin.Context) {
	hash := c.Query("hash")
	nStr := c.DefaultQuery("n", "0")
	version := c.DefaultQuery("version", "v2")
	percentStr := c.DefaultQuery("percent", "500")

	n, err := parseIntQuery(nStr)
	if err != nil || n <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be a positive integer"})
		return
	}

	var dense [][]bool
	switch version {
	case "legacy":
		dense, err = validator.GenerateGraph(hash, n)
	case "v2":
		percent, perr := parseIntQuery(percentStr)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "percent must be an integer"})
			return
		}
		dense, err = validator.GenerateGraphV2(hash, n, percent)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be legacy or v2"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"n": n, "version": version, "graph": dense})
}

// StatsResponse is the /v1/stats response.
type StatsResponse struct {
	Accepted        int64 `json:"accepted"`
	Rejected        int64 `json:"rejected"`
	BlocksFound     int64 `json:"blocks_found"`
	Errors          int64 `json:"errors"`
	StreamObservers int   `json:"stream_observers"`
	QueueDepth      int   `json:"queue_depth"`
	ActiveWorkers   int   `json:"active_workers"`
}

// handleStats serves worker-pool and verdict counters, cached for
// cfg.API.StatsCache to keep the queue-depth probe off the hot path under
// a stats-polling dashboard.
func (s *Server) handleStats(c *gin.Context) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	if s.cfg.API.StatsCache > 0 && time.Since(s.statsCachedAt) < s.cfg.API.StatsCache {
		c.JSON(http.StatusOK, s.statsCached)
		return
	}

	resp := StatsResponse{
		Accepted:    atomic.LoadInt64(&s.counters.accepted),
		Rejected:    atomic.LoadInt64(&s.counters.rejected),
		BlocksFound: atomic.LoadInt64(&s.counters.blocks),
		Errors:      atomic.LoadInt64(&s.counters.errors),
	}
	if s.hub != nil {
		resp.StreamObservers = s.hub.ClientCount()
	}
	resp.QueueDepth, resp.ActiveWorkers = validator.PoolStats()

	if s.nrAgent != nil {
		s.nrAgent.UpdateQueueMetrics(int64(resp.QueueDepth), int64(resp.ActiveWorkers))
	}

	s.statsCached = resp
	s.statsCachedAt = time.Now()
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleStream(c *gin.Context) {
	s.hub.HandleWS(c.Writer, c.Request)
}

func parseIntQuery(s string) (int, error) {
	return strconv.Atoi(s)
}
