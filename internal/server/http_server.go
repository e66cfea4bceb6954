package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"banker/internal/banker"
	"banker/internal/common"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AllocatorInterface 定义 HTTP 层依赖的分配服务接口
type AllocatorInterface interface {
	Request(ctx context.Context, node int, request common.ResourceVector) (banker.Decision, error)
	Release(ctx context.Context, node int) (common.ResourceVector, error)
	IsSafe() bool
	Snapshot() banker.Snapshot
	NodeName(node int) string
	NodeIndex(name string) (int, bool)
	Metrics() *common.Metrics
}

// HTTPServer 分配服务 HTTP 服务器
type HTTPServer struct {
	server *http.Server
	logger *zap.Logger
	alloc  AllocatorInterface
	config common.ServerConfig
}

// RequestBody 资源申请请求体
type RequestBody struct {
	Request common.ResourceVector `json:"request"`
}

// DecisionResponse 资源申请响应
type DecisionResponse struct {
	banker.Decision
	NodeName string `json:"node_name"`
}

// NewHTTPServer 创建新的 HTTP 服务器
func NewHTTPServer(alloc AllocatorInterface, config common.ServerConfig, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		alloc:  alloc,
		config: config,
		logger: logger,
	}
}

// Router 构建路由
func (s *HTTPServer) Router() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)
	router.Use(s.corsMiddleware)

	// 路由直接注册在根路由上，方法不匹配时返回 405
	router.HandleFunc("/ws/v1/state", s.handleState).Methods(http.MethodGet)
	router.HandleFunc("/ws/v1/state/safe", s.handleSafe).Methods(http.MethodGet)
	router.HandleFunc("/ws/v1/nodes/{node}/request", s.handleRequest).Methods(http.MethodPost)
	router.HandleFunc("/ws/v1/nodes/{node}/release", s.handleRelease).Methods(http.MethodPost)
	router.HandleFunc("/ws/v1/metrics", s.handleMetrics).Methods(http.MethodGet)

	return router
}

// Start 启动 HTTP 服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Address, s.config.Port),
		Handler:      s.Router(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting allocator HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Stop 停止 HTTP 服务器
func (s *HTTPServer) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("Stopping allocator HTTP server")
	return s.server.Shutdown(ctx)
}

// GetAddress 获取服务器地址
func (s *HTTPServer) GetAddress() string {
	if s.server != nil {
		return s.server.Addr
	}
	return ""
}

// handleState 返回状态快照
func (s *HTTPServer) handleState(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.alloc.Snapshot())
}

// handleSafe 返回当前状态是否安全
func (s *HTTPServer) handleSafe(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"safe": s.alloc.IsSafe(),
	})
}

// handleRequest 处理资源申请；授予和拒绝都返回 200
func (s *HTTPServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	node, err := s.resolveNode(mux.Vars(r)["node"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	var body RequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, common.NewValidationError(common.ErrInvalidRequest, "body", err.Error(), nil))
		return
	}

	decision, err := s.alloc.Request(r.Context(), node, body.Request)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, DecisionResponse{
		Decision: decision,
		NodeName: s.alloc.NodeName(node),
	})
}

// handleRelease 处理资源释放
func (s *HTTPServer) handleRelease(w http.ResponseWriter, r *http.Request) {
	node, err := s.resolveNode(mux.Vars(r)["node"])
	if err != nil {
		s.writeError(w, err)
		return
	}

	released, err := s.alloc.Release(r.Context(), node)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"node":      node,
		"node_name": s.alloc.NodeName(node),
		"released":  released,
	})
}

// handleMetrics 返回指标快照
func (s *HTTPServer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.alloc.Metrics().GetSnapshot())
}

// resolveNode 路径参数可以是节点编号或节点名称
func (s *HTTPServer) resolveNode(raw string) (int, error) {
	if idx, ok := s.alloc.NodeIndex(raw); ok {
		return idx, nil
	}
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return -1, common.NewValidationError(common.ErrUnknownNode, "node", "not a node name or index", raw)
	}
	return idx, nil
}

// loggingMiddleware 日志中间件
func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r)

		s.logger.Debug("HTTP response",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

// corsMiddleware CORS中间件
func (s *HTTPServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeError 按错误分类写入错误响应
func (s *HTTPServer) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrUnknownNode):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrInvalidRequest):
		status = http.StatusBadRequest
	}
	s.writeJSONResponse(w, status, common.NewAPIError(status, err))
}

// writeJSONResponse 写入 JSON 响应
func (s *HTTPServer) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}
