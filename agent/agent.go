package agent

import (
	"context"
	"fmt"
	"strings"

	"tas-agent/config"
	"tas-agent/database"
	"tas-agent/llmclient"
	"tas-agent/prompts"
	"tas-agent/web/types"

	"go.uber.org/zap"
)

// LLM is the model server the agent talks to.
type LLM interface {
	ChatStream(ctx context.Context, host string, messages []types.AgentMessage, temperature *float64) (<-chan llmclient.Chunk, error)
	Embed(ctx context.Context, host string, doc string) ([]float32, error)
}

// restartable sinks can be cleared between generations of one run.
type restartable interface {
	Restart() bool
}

// restart readies sink for another generation. False means the sink already
// forwarded answer text and the run must stop.
func restart(sink TokenSink) bool {
	if r, ok := sink.(restartable); ok {
		return r.Restart()
	}
	return true
}

// DocumentSearcher returns the k stored documents nearest to an embedding.
type DocumentSearcher interface {
	Search(ctx context.Context, embedding []float32, k int) ([]database.Document, error)
}

// Request is one user question with its conversation context.
type Request struct {
	SessionID      string
	Envelope       Envelope
	ResponseLength string
	History        []types.ChatMessage
}

// DirectChunk is the cumulative state emitted for each streamed delta of a
// direct generation.
type DirectChunk struct {
	ChatID      string  `json:"chat_id"`
	TextMessage string  `json:"text_message"`
	DataID      *string `json:"data_id"`
	DocIndex    *int    `json:"doc_index"`
}

type Agent struct {
	cfg             *config.Config
	llm             LLM
	docs            DocumentSearcher
	responseHandler *ResponseHandler
	logger          *zap.Logger
}

func NewAgent(cfg *config.Config, llm LLM, docs DocumentSearcher, logger *zap.Logger) *Agent {
	logger.Info("Agent initialized",
		zap.Int("max_iterations", cfg.AgentMaxIterations),
		zap.String("model", cfg.LLMModel))
	return &Agent{
		cfg:             cfg,
		llm:             llm,
		docs:            docs,
		responseHandler: NewResponseHandler(logger),
		logger:          logger,
	}
}

// retrieve folds history into the query and fetches supporting documents.
// Retrieval failures leave the prompt without documents.
func (a *Agent) retrieve(ctx context.Context, req Request) (PromptParts, []database.Document) {
	parts := PromptParts{
		Envelope: req.Envelope,
		History:  FoldHistory(req.History, a.cfg.MaxSessionIteration),
	}
	if a.docs == nil {
		return parts, nil
	}

	query := parts.Query()
	if strings.TrimSpace(query) == "" {
		return parts, nil
	}
	embedding, err := a.llm.Embed(ctx, a.cfg.EmbeddingLLMHost, query)
	if err != nil {
		a.logger.Warn("Failed to embed query, continuing without documents",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		return parts, nil
	}
	k := RetrievalDepth(req.ResponseLength)
	docs, err := a.docs.Search(ctx, embedding, k)
	if err != nil {
		a.logger.Warn("Document search failed, continuing without documents",
			zap.String("session_id", req.SessionID),
			zap.Error(err))
		return parts, nil
	}
	for _, d := range docs {
		parts.Documents = append(parts.Documents, d.Content)
	}
	a.logger.Debug("Retrieved documents",
		zap.String("session_id", req.SessionID),
		zap.Int("k", k),
		zap.Int("found", len(docs)))
	return parts, docs
}

// Run drives the ReAct loop for req, pushing every generated token into
// sink. sink.End is called exactly once when the loop stops.
func (a *Agent) Run(ctx context.Context, req Request, sink TokenSink) error {
	defer sink.End()

	parts, _ := a.retrieve(ctx, req)
	prompt := parts.AgentPrompt()
	a.logger.Info("Starting agent run",
		zap.String("session_id", req.SessionID),
		zap.String("response_length", req.ResponseLength),
		zap.Int("prompt_length", len(prompt)))

	messages := []types.AgentMessage{
		{Role: "system", Content: prompts.AgentSystem()},
		{Role: "user", Content: prompt},
	}

	loop := NewConversationLoop(a.cfg.AgentMaxIterations, a.logger)
	generations := 0
	defer func() { agentIterations.Observe(float64(generations)) }()

	for turn := 0; ; turn++ {
		if ok, _ := loop.ShouldContinue(turn); !ok {
			return nil
		}

		responseChan, err := a.llm.ChatStream(ctx, a.cfg.MainLLMHost, messages, nil)
		if err != nil {
			a.logger.Error("Failed to get LLM response, aborting run",
				zap.Error(err),
				zap.Int("turn", turn),
				zap.String("session_id", req.SessionID))
			return err
		}
		generations++
		response := a.responseHandler.CollectStreamedResponse(responseChan, sink)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var action Action
		if a.responseHandler.IsEmpty(response) {
			err = ErrNoActionBlob
		} else {
			action, err = ParseAction(response)
		}
		if err != nil {
			loop.RecordError()
			if !restart(sink) {
				a.logger.Warn("Unparseable generation after answer text was forwarded, stopping run",
					zap.String("session_id", req.SessionID),
					zap.Int("turn", turn),
					zap.Error(err))
				return nil
			}
			a.logger.Warn("Could not parse agent output, asking for a valid action",
				zap.Int("turn", turn),
				zap.Error(err))
			messages = append(messages,
				types.AgentMessage{Role: "assistant", Content: response},
				types.AgentMessage{Role: "user", Content: prompts.FormatReminder()},
			)
			continue
		}
		loop.RecordSuccess()

		if action.Name == FinalAnswerMarker {
			a.logger.Info("Agent produced final answer",
				zap.String("session_id", req.SessionID),
				zap.Int("generations", generations),
				zap.Int("answer_length", len(action.Input)))
			return nil
		}

		// No tools are registered; any other action is answered with an observation.
		if !restart(sink) {
			return nil
		}
		messages = append(messages,
			types.AgentMessage{Role: "assistant", Content: response},
			types.AgentMessage{Role: "user", Content: fmt.Sprintf(prompts.UnknownTool(), action.Name)},
		)
	}
}

// GenerateDirect streams one completion without the agent loop. emit is
// called with the cumulative result after every delta; an emit error stops
// the generation.
func (a *Agent) GenerateDirect(ctx context.Context, req Request, emit func(DirectChunk) error) error {
	parts, docs := a.retrieve(ctx, req)

	result := DirectChunk{}
	if len(docs) > 0 {
		dataID, docIndex := docs[0].DataID, docs[0].DocIndex
		result.DataID, result.DocIndex = &dataID, &docIndex
	}

	temperature := 0.0
	messages := []types.AgentMessage{
		{Role: "system", Content: req.Envelope.Prefix},
		{Role: "user", Content: parts.Context()},
	}
	responseChan, err := a.llm.ChatStream(ctx, a.cfg.MainLLMHost, messages, &temperature)
	if err != nil {
		return err
	}

	var text strings.Builder
	for chunk := range responseChan {
		result.ChatID = chunk.ID
		text.WriteString(chunk.Content)
		result.TextMessage = text.String()
		if err := emit(result); err != nil {
			// drain so the client goroutine can exit
			for range responseChan {
			}
			return err
		}
	}
	return nil
}
