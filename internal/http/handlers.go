package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/agent"
	"github.com/temafey/rag-vector-doc-claude/internal/document"
	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/planner"
	"github.com/temafey/rag-vector-doc-claude/internal/rag"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

// ErrorResponse is the JSON body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// notFoundErrors map to 404.
var notFoundErrors = []error{
	document.ErrNotFound,
	vectorstore.ErrDocumentNotFound,
	vectorstore.ErrCollectionNotFound,
	agent.ErrAgentNotFound,
	planner.ErrPlanNotFound,
	evaluation.ErrEvaluationNotFound,
}

// validationErrors map to 400.
var validationErrors = []error{
	rag.ErrEmptyQuery,
	document.ErrEmptyContent,
	agent.ErrEmptyQuery,
	agent.ErrUnknownAction,
	vectorstore.ErrEmptyDocuments,
	vectorstore.ErrCollectionExists,
	vectorstore.ErrInvalidCollectionName,
	vectorstore.ErrInvalidConfig,
}

// errorResponse maps service errors onto HTTP status codes.
func (s *Server) errorResponse(c echo.Context, err error) error {
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		}
	}
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
	}
	s.logger.Error("request failed",
		zap.String("uri", c.Request().RequestURI),
		zap.Error(err),
	)
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// SearchRequest is the request body for POST /api/v1/search.
type SearchRequest struct {
	Query          string                 `json:"query"`
	Collection     string                 `json:"collection,omitempty"`
	TargetLanguage string                 `json:"target_language,omitempty"`
	TopK           int                    `json:"top_k,omitempty"`
	Filters        map[string]interface{} `json:"filters,omitempty"`
}

func (s *Server) handleSearch(c echo.Context) error {
	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Query == "" {
		return badRequest(c, "query field is required")
	}

	result, err := s.services.RAG.Query(c.Request().Context(), rag.QueryRequest{
		Query:          req.Query,
		Collection:     req.Collection,
		TargetLanguage: req.TargetLanguage,
		TopK:           req.TopK,
		Filters:        req.Filters,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// DocumentRequest is the request body for document ingestion routes.
type DocumentRequest struct {
	Content    string                 `json:"content"`
	Collection string                 `json:"collection,omitempty"`
	Language   string                 `json:"language,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

func (s *Server) handleAddDocument(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.services.Documents.Add(c.Request().Context(), document.AddRequest{
		Content:    req.Content,
		Collection: req.Collection,
		Language:   req.Language,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

func (s *Server) handleGetDocument(c echo.Context) error {
	chunk, err := s.services.Documents.GetChunk(c.Request().Context(), c.QueryParam("collection"), c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, chunk)
}

func (s *Server) handleDeleteDocument(c echo.Context) error {
	err := s.services.Documents.Delete(c.Request().Context(), c.QueryParam("collection"), c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleReindexDocument(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.services.Documents.Reindex(c.Request().Context(), document.AddRequest{
		ID:         c.Param("id"),
		Content:    req.Content,
		Collection: req.Collection,
		Language:   req.Language,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleUpdateDocumentLanguage re-indexes a document under a corrected
// language tag. Chunk content is immutable in the store, so the caller
// supplies the document text again.
func (s *Server) handleUpdateDocumentLanguage(c echo.Context) error {
	var req DocumentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Language == "" {
		return badRequest(c, "language field is required")
	}

	result, err := s.services.Documents.Reindex(c.Request().Context(), document.AddRequest{
		ID:         c.Param("id"),
		Content:    req.Content,
		Collection: req.Collection,
		Language:   req.Language,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// CollectionRequest is the request body for POST /api/v1/collections.
type CollectionRequest struct {
	Name       string `json:"name"`
	VectorSize int    `json:"vector_size,omitempty"`
}

func (s *Server) handleListCollections(c echo.Context) error {
	names, err := s.services.Documents.ListCollections(c.Request().Context())
	if err != nil {
		return s.errorResponse(c, err)
	}

	infos := make([]*vectorstore.CollectionInfo, 0, len(names))
	for _, name := range names {
		info, err := s.services.Documents.CollectionInfo(c.Request().Context(), name)
		if err != nil {
			return s.errorResponse(c, err)
		}
		infos = append(infos, info)
	}
	return c.JSON(http.StatusOK, infos)
}

func (s *Server) handleCreateCollection(c echo.Context) error {
	var req CollectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Name == "" {
		return badRequest(c, "name field is required")
	}

	if err := s.services.Documents.CreateCollection(c.Request().Context(), req.Name, req.VectorSize); err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]string{"name": req.Name})
}

func (s *Server) handleDeleteCollection(c echo.Context) error {
	if err := s.services.Documents.DeleteCollection(c.Request().Context(), c.Param("name")); err != nil {
		return s.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AgentRequest is the request body for POST /api/v1/agents.
type AgentRequest struct {
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	ConversationID string                 `json:"conversation_id"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func (s *Server) handleCreateAgent(c echo.Context) error {
	var req AgentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Name == "" {
		return badRequest(c, "name field is required")
	}

	ag, err := s.services.Agents.CreateAgent(c.Request().Context(), req.Name, req.Description, req.ConversationID, req.Config)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, ag)
}

func (s *Server) handleListAgents(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Agents.ListAgents())
}

func (s *Server) handleGetAgent(c echo.Context) error {
	ag, err := s.services.Agents.GetAgent(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ag)
}

func (s *Server) handleAgentsByConversation(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Agents.AgentsByConversation(c.Param("conversation_id")))
}

func (s *Server) handleDeleteAgent(c echo.Context) error {
	if err := s.services.Agents.DeleteAgent(c.Request().Context(), c.Param("id")); err != nil {
		return s.errorResponse(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AgentQueryRequest is the request body for POST /api/v1/agents/:id/query.
type AgentQueryRequest struct {
	Query       string   `json:"query"`
	UsePlanning bool     `json:"use_planning,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

func (s *Server) handleAgentQuery(c echo.Context) error {
	var req AgentQueryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ag, err := s.services.Agents.GetAgent(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	if req.UsePlanning {
		if s.services.Planner == nil {
			return badRequest(c, "planning is not enabled")
		}
		outcome, err := s.services.Planner.ProcessTask(c.Request().Context(), ag, req.Query, req.Constraints)
		if err != nil {
			return s.errorResponse(c, err)
		}
		return c.JSON(http.StatusOK, outcome)
	}

	outcome, err := s.services.Agents.ProcessQuery(c.Request().Context(), ag, req.Query)
	if err != nil {
		return s.errorResponse(c, err)
	}
	if s.services.Evaluations != nil && outcome.Evaluation != nil {
		s.services.Evaluations.Save(outcome.Evaluation)
	}
	return c.JSON(http.StatusOK, outcome)
}

// ActionRequest is the request body for POST /api/v1/agents/:id/actions.
type ActionRequest struct {
	ActionType string                 `json:"action_type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

func (s *Server) handleExecuteAction(c echo.Context) error {
	var req ActionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.ActionType == "" {
		return badRequest(c, "action_type field is required")
	}

	ag, err := s.services.Agents.GetAgent(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	action, err := s.services.Agents.ExecuteAction(c.Request().Context(), ag, req.ActionType, req.Parameters)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, action)
}

func (s *Server) handleListActions(c echo.Context) error {
	ag, err := s.services.Agents.GetAgent(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, ag.State.History())
}

// EvaluateRequest is the request body for POST /api/v1/agents/:id/evaluate.
type EvaluateRequest struct {
	Query    string   `json:"query"`
	Response string   `json:"response"`
	Context  []string `json:"context,omitempty"`
}

func (s *Server) handleEvaluate(c echo.Context) error {
	var req EvaluateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Query == "" || req.Response == "" {
		return badRequest(c, "query and response fields are required")
	}

	if _, err := s.services.Agents.GetAgent(c.Param("id")); err != nil {
		return s.errorResponse(c, err)
	}

	result, err := s.services.Loop.Run(c.Request().Context(), req.Query, req.Response, req.Context)
	if err != nil {
		return s.errorResponse(c, err)
	}
	if s.services.Evaluations != nil {
		for _, eval := range result.Evaluations {
			s.services.Evaluations.Save(eval)
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetEvaluation(c echo.Context) error {
	eval, err := s.services.Evaluations.Get(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, eval)
}

func (s *Server) handleImprove(c echo.Context) error {
	eval, err := s.services.Evaluations.Get(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	improvement, err := s.services.Improver.Improve(c.Request().Context(), eval)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, improvement)
}

// PlanRequest is the request body for POST /api/v1/agents/:id/plans.
type PlanRequest struct {
	Task        string   `json:"task"`
	Constraints []string `json:"constraints,omitempty"`
}

func (s *Server) handleCreatePlan(c echo.Context) error {
	var req PlanRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Task == "" {
		return badRequest(c, "task field is required")
	}

	ag, err := s.services.Agents.GetAgent(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	plan, err := s.services.Planner.CreatePlan(c.Request().Context(), ag, req.Task, req.Constraints)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, plan)
}

func (s *Server) handleGetPlan(c echo.Context) error {
	plan, err := s.services.Planner.GetPlan(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, plan)
}

func (s *Server) handleExecutePlan(c echo.Context) error {
	plan, err := s.services.Planner.GetPlan(c.Param("id"))
	if err != nil {
		return s.errorResponse(c, err)
	}

	ag, err := s.services.Agents.GetAgent(plan.AgentID)
	if err != nil {
		return s.errorResponse(c, err)
	}

	result, err := s.services.Planner.ExecutePlan(c.Request().Context(), ag, plan)
	if err != nil {
		return s.errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
