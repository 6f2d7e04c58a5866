package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"tas-agent/agent"
	"tas-agent/config"
	"tas-agent/database"
	"tas-agent/web/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AgentRunner produces answers for chat requests.
type AgentRunner interface {
	Run(ctx context.Context, req agent.Request, sink agent.TokenSink) error
	GenerateDirect(ctx context.Context, req agent.Request, emit func(agent.DirectChunk) error) error
}

// MessageStore is the conversation log.
type MessageStore interface {
	InsertMessage(ctx context.Context, sessionID, historyID, sender, text string) error
	GetRecentMessages(ctx context.Context, sessionID string, limit int, senders ...string) ([]types.ChatMessage, error)
}

// directChunkSeparator terminates every JSON object of /generate_response.
const directChunkSeparator = "\n\n\n\n"

type ChatHandler struct {
	agent  AgentRunner
	store  MessageStore
	cfg    *config.Config
	logger *zap.Logger
	// runs tracks agent runs detached from their requests.
	runs sync.WaitGroup
}

func NewChatHandler(agent AgentRunner, store MessageStore, cfg *config.Config, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		agent:  agent,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// prepare validates a query request and loads the session history.
func (h *ChatHandler) prepare(c *gin.Context) (agent.Request, bool) {
	var req types.QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return agent.Request{}, false
	}
	if strings.TrimSpace(req.Query) == "" || strings.TrimSpace(req.SessionID) == "" {
		respondWithClientError(c, http.StatusBadRequest, "Both 'query' and 'session_id' must be provided")
		return agent.Request{}, false
	}

	envelope := agent.ParseEnvelope(req.Query)
	history, err := h.store.GetRecentMessages(c.Request.Context(), req.SessionID, h.cfg.HistoryLimit)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to load chat history", h.logger,
			zap.String("session_id", req.SessionID))
		return agent.Request{}, false
	}

	h.logger.Info("Received query",
		zap.String("session_id", req.SessionID),
		zap.String("question", envelope.Question),
		zap.String("instructions", envelope.Instructions),
		zap.String("response_length", req.ResponseLength),
		zap.Int("history", len(history)))

	return agent.Request{
		SessionID:      req.SessionID,
		Envelope:       envelope,
		ResponseLength: req.ResponseLength,
		History:        history,
	}, true
}

// GetResponseFromAI streams the agent's final answer as raw text chunks. The
// question is logged before the run and the answer once the run ends, even
// when the client has disconnected.
func (h *ChatHandler) GetResponseFromAI(c *gin.Context) {
	req, ok := h.prepare(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	historyID := database.HistoryID()
	if err := h.store.InsertMessage(ctx, req.SessionID, historyID, database.SenderHuman, req.Envelope.Question); err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to store message", h.logger,
			zap.String("session_id", req.SessionID))
		return
	}

	// The run and its persistence outlive the request.
	detached := context.WithoutCancel(ctx)
	sink, tokens := agent.NewAnswerStream(func(answer string) {
		if err := h.store.InsertMessage(detached, req.SessionID, historyID, database.SenderAI, answer); err != nil {
			h.logger.Error("Failed to store answer",
				zap.Error(err),
				zap.String("session_id", req.SessionID),
				zap.String("history_id", historyID))
		}
	}, h.cfg.StreamBufferSize)

	h.runs.Add(1)
	go func() {
		defer h.runs.Done()
		if err := h.agent.Run(detached, req, sink); err != nil {
			h.logger.Error("Agent run failed",
				zap.Error(err),
				zap.String("session_id", req.SessionID),
				zap.String("history_id", historyID))
		}
	}()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	for {
		select {
		case <-ctx.Done():
			sink.Discard()
			h.logger.Info("Client disconnected, answer will still be stored",
				zap.String("session_id", req.SessionID),
				zap.String("history_id", historyID))
			return
		case tok, open := <-tokens:
			if !open {
				return
			}
			if _, err := c.Writer.WriteString(tok); err != nil {
				sink.Discard()
				h.logger.Warn("Failed to write token, discarding the rest", zap.Error(err))
				return
			}
			c.Writer.Flush()
		}
	}
}

// Wait blocks until every detached agent run has stored its answer or ctx
// is done.
func (h *ChatHandler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.runs.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GenerateResponse streams a single completion as a sequence of cumulative
// JSON objects. Nothing is persisted.
func (h *ChatHandler) GenerateResponse(c *gin.Context) {
	req, ok := h.prepare(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	c.Header("Content-Type", "application/json")
	c.Status(http.StatusOK)

	err := h.agent.GenerateDirect(ctx, req, func(chunk agent.DirectChunk) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := c.Writer.Write(append(data, directChunkSeparator...)); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		h.logger.Warn("Direct generation stopped",
			zap.Error(err),
			zap.String("session_id", req.SessionID))
	}
}

// UpdateChatHistory appends a message to a session log.
func (h *ChatHandler) UpdateChatHistory(c *gin.Context) {
	var req types.ChatHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !database.ValidSender(req.Sender) {
		respondWithClientError(c, http.StatusBadRequest, "Please include sender either 'ai' or 'human'")
		return
	}
	historyID := req.HistoryID
	if historyID == "" {
		historyID = database.HistoryID()
	}

	if err := h.store.InsertMessage(c.Request.Context(), req.SessionID, historyID, req.Sender, req.Query); err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Failed to update chat history", h.logger,
			zap.String("session_id", req.SessionID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history updated successfully.", "history_id": historyID})
}
