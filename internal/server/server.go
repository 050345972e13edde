// internal/server/server.go
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"
	"github.com/ThinkInAIXYZ/go-mcp/server"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"mcp-nutrition-tracker/internal/storage"
)

type Config struct {
	Host   string
	Port   int
	DBPath string
}

// NutritionServer exposes the meal-logging and reporting tools to a chat
// assistant over HTTP-carried MCP tool calls.
type NutritionServer struct {
	server     *server.Server
	httpServer *http.Server
	storage    *storage.SQLiteStorage
	estimator  *Estimator
	logger     *zap.Logger
	config     *Config
}

func NewNutritionServer(cfg *Config, logger *zap.Logger) (*NutritionServer, error) {
	stor, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	srv := &NutritionServer{
		storage:   stor,
		estimator: NewEstimator(logger),
		logger:    logger,
		config:    cfg,
	}

	// The MCP server carries protocol identity; transport is handled by
	// the HTTP layer below.
	mcpServer, err := server.NewServer(
		nil,
		server.WithServerInfo(protocol.Implementation{
			Name:    "nutrition-tracker",
			Version: "1.0.0",
		}),
	)
	if err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to create MCP server: %w", err)
	}
	srv.server = mcpServer

	if err := srv.registerTools(); err != nil {
		stor.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/", srv.handleToolCall).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	router.Use(srv.loggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv.httpServer = &http.Server{
		Addr:    addr,
		Handler: c.Handler(router),
	}

	return srv, nil
}

func (s *NutritionServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func (s *NutritionServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

func (s *NutritionServer) handleToolCall(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}

	w.Header().Set("Content-Type", "application/json")

	var request protocol.CallToolRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var result *protocol.CallToolResult
	var err error

	switch request.Name {
	case "log_meal":
		result, err = s.handleLogMeal(&request)
	case "quick_add":
		result, err = s.handleQuickAdd(&request)
	case "estimate_nutrition":
		result, err = s.handleEstimateNutrition(&request)
	case "get_meals":
		result, err = s.handleGetMeals(&request)
	case "update_meal":
		result, err = s.handleUpdateMeal(&request)
	case "delete_meal":
		result, err = s.handleDeleteMeal(&request)
	case "get_daily_summary":
		result, err = s.handleGetDailySummary(&request)
	case "get_weekly_report":
		result, err = s.handleGetWeeklyReport(&request)
	case "set_goals":
		result, err = s.handleSetGoals(&request)
	case "get_goals":
		result, err = s.handleGetGoals(&request)
	default:
		http.Error(w, fmt.Sprintf("Unknown tool: %s", request.Name), http.StatusNotFound)
		return
	}

	if err != nil {
		s.logger.Warn("tool call failed",
			zap.String("tool", request.Name),
			zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *NutritionServer) Start(ctx context.Context) error {
	s.logger.Info("starting nutrition tracker server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *NutritionServer) Stop() error {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *NutritionServer) createJSONResponse(data interface{}) (*protocol.CallToolResult, error) {
	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}

	return &protocol.CallToolResult{
		Content: []protocol.Content{
			protocol.TextContent{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
	}, nil
}
