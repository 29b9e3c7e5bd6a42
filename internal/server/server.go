// Package server exposes the project-management API over HTTP: CRUD for
// users, projects, tasks, and comments, plus the AI endpoints backed by the
// completion provider and the assistant dispatcher.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/Janarthanan-Gnanamurthy/Planora/internal/agent"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/llm"
	"github.com/Janarthanan-Gnanamurthy/Planora/internal/store"
)

// Server holds the HTTP handler dependencies.
type Server struct {
	store       *store.DB
	provider    llm.Provider
	dispatcher  *agent.Dispatcher
	corsOrigins []string
	log         zerolog.Logger
}

// New creates the API server.
func New(db *store.DB, provider llm.Provider, dispatcher *agent.Dispatcher, corsOrigins []string, log zerolog.Logger) *Server {
	return &Server{
		store:       db,
		provider:    provider,
		dispatcher:  dispatcher,
		corsOrigins: corsOrigins,
		log:         log,
	}
}

// Handler builds the route table wrapped in CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)

	mux.HandleFunc("POST /users", s.handleCreateUser)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)

	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("POST /projects/add-collaborators", s.handleAddCollaborators)

	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	mux.HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("POST /comments", s.handleCreateComment)
	mux.HandleFunc("GET /comments", s.handleListComments)

	mux.HandleFunc("POST /ai/summarize_task", s.handleSummarizeTask)
	mux.HandleFunc("POST /ai/suggest_tasks", s.handleSuggestTasks)
	mux.HandleFunc("POST /ai/analyze_comment", s.handleAnalyzeComment)
	mux.HandleFunc("POST /ai/complex_task_assistant", s.handleComplexTaskAssistant)
	mux.HandleFunc("POST /ai/assistant", s.handleAssistant)
	mux.HandleFunc("GET /ai/assistant/history", s.handleAssistantHistory)
	mux.HandleFunc("POST /ai/project_insights", s.handleProjectInsights)
	mux.HandleFunc("POST /ai/task_optimizer", s.handleTaskOptimizer)
	mux.HandleFunc("POST /ai/smart_task_creation", s.handleSmartTaskCreation)

	return s.requestLogging(s.cors(mux))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Planora project management API running",
	})
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// pagination reads skip/limit query parameters with the original defaults.
func pagination(r *http.Request) (skip, limit int) {
	skip, _ = strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	return skip, limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func notFound(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": msg})
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}
