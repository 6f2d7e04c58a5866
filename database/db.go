package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	apperrors "tas-agent/errors"
	"tas-agent/web/types"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	SenderAI    = "ai"
	SenderHuman = "human"
)

// ValidSender reports whether s is a sender the messages table accepts.
func ValidSender(s string) bool {
	return s == SenderAI || s == SenderHuman
}

type PostgresStore struct {
	DB     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(connStr string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "ping database")
	}
	logger.Info("Successfully connected to the database")
	return NewStoreFromDB(db, logger), nil
}

// NewStoreFromDB wraps an already opened handle.
func NewStoreFromDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{DB: db, logger: logger}
}

func (s *PostgresStore) Close() error {
	return s.DB.Close()
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`CREATE TABLE IF NOT EXISTS messages (
            message_id UUID PRIMARY KEY,
            session_id TEXT NOT NULL,
            history_id TEXT NOT NULL,
            sender TEXT NOT NULL CHECK (sender IN ('ai', 'human')),
            message_text TEXT NOT NULL,
            timestamp TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_timestamp ON messages(session_id, timestamp DESC)`,
		`CREATE TABLE IF NOT EXISTS documents (
            id BIGSERIAL PRIMARY KEY,
            data_id TEXT NOT NULL,
            doc_index INTEGER NOT NULL,
            content TEXT NOT NULL,
            embedding vector NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_documents_data_id ON documents(data_id)`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return apperrors.Join(apperrors.ErrDatabaseOperation, err, "failed to execute schema statement")
		}
	}
	return nil
}

// InsertMessage appends one turn to the conversation log.
func (s *PostgresStore) InsertMessage(ctx context.Context, sessionID, historyID, sender, text string) error {
	if !ValidSender(sender) {
		return apperrors.Join(apperrors.ErrInvalidInput, nil, "sender must be %q or %q, got %q", SenderAI, SenderHuman, sender)
	}

	query := `
		INSERT INTO messages (message_id, session_id, history_id, sender, message_text, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Join(apperrors.ErrDatabaseOperation, err, "begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, uuid.New(), sessionID, historyID, sender, text, time.Now()); err != nil {
		return apperrors.Join(apperrors.ErrDatabaseOperation, err, "insert message")
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Join(apperrors.ErrDatabaseOperation, err, "commit message")
	}

	s.logger.Debug("Stored message",
		zap.String("session_id", sessionID),
		zap.String("history_id", historyID),
		zap.String("sender", sender),
		zap.Int("length", len(text)))
	return nil
}

// GetRecentMessages returns the newest limit messages of a session from the
// given senders, oldest first. Roles are upper-cased (AI, HUMAN).
func (s *PostgresStore) GetRecentMessages(ctx context.Context, sessionID string, limit int, senders ...string) ([]types.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(senders) == 0 {
		senders = []string{SenderAI, SenderHuman}
	}

	query := `
		SELECT message_id, session_id, sender, message_text FROM messages
		WHERE session_id = $1 AND sender = ANY($2)
		ORDER BY timestamp DESC
		LIMIT $3
	`
	rows, err := s.DB.QueryContext(ctx, query, sessionID, pq.Array(senders), limit)
	if err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "query recent messages")
	}
	defer rows.Close()

	var messages []types.ChatMessage
	for rows.Next() {
		var msg types.ChatMessage
		var sender string
		if err := rows.Scan(&msg.ID, &msg.SessionID, &sender, &msg.Content); err != nil {
			return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "scan message")
		}
		msg.Role = strings.ToUpper(sender)
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Join(apperrors.ErrDatabaseOperation, err, "iterate messages")
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// HistoryID returns a fresh identifier tying a question to its answer.
func HistoryID() string {
	return uuid.NewString()
}
