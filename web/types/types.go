package types

// AgentMessage represents a message in the format expected by the agent and LLM.
type AgentMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMessage represents a single message in the chat, stored in the DB.
type ChatMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
}

// QueryRequest is the body of the answer endpoints. Query carries the
// %info%/%query%/%instructions% envelope.
type QueryRequest struct {
	Query          string `json:"query"`
	History        []any  `json:"history"`
	ResponseLength string `json:"responseLength"`
	HistoryID      string `json:"history_id"`
	SessionID      string `json:"session_id"`
}

// TextQuery is the body of the endpoints that take a single piece of text.
type TextQuery struct {
	Query string `json:"query" binding:"required"`
}

// ChunkQuery asks for the data id best matching a text chunk.
type ChunkQuery struct {
	Chunk string `json:"chunk" binding:"required"`
}

// MetadataURLQuery asks for the url of the metadata node closest to Chunk.
type MetadataURLQuery struct {
	DataID string `json:"data_id" binding:"required"`
	Chunk  string `json:"chunk"`
}

// MetadataQuery addresses one metadata document or, for source links, many.
type MetadataQuery struct {
	DataID  string   `json:"data_id"`
	DataIDs []string `json:"data_ids"`
}

// ChatHistoryRequest appends one message to a session log.
type ChatHistoryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id" binding:"required"`
	HistoryID string `json:"history_id"`
	Sender    string `json:"sender"`
}
