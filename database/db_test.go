package database

import (
	"context"
	"errors"
	"testing"

	apperrors "tas-agent/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStoreFromDB(db, zap.NewNop()), mock
}

func TestEnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS messages").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_messages_session_timestamp").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_documents_data_id").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))

	err := store.EnsureSchema(context.Background())
	if !errors.Is(err, apperrors.ErrDatabaseOperation) {
		t.Fatalf("error = %v, want ErrDatabaseOperation", err)
	}
}

func TestInsertMessage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").
		WithArgs(sqlmock.AnyArg(), "session-1", "history-1", "human", "Who painted Guernica?", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := store.InsertMessage(context.Background(), "session-1", "history-1", SenderHuman, "Who painted Guernica?"); err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertMessageRollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO messages").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.InsertMessage(context.Background(), "s", "h", SenderAI, "text")
	if !errors.Is(err, apperrors.ErrDatabaseOperation) {
		t.Fatalf("error = %v, want ErrDatabaseOperation", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertMessageRejectsUnknownSender(t *testing.T) {
	store, mock := newMockStore(t)

	err := store.InsertMessage(context.Background(), "s", "h", "system", "text")
	if !apperrors.IsInvalidInput(err) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestGetRecentMessagesOldestFirst(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"message_id", "session_id", "sender", "message_text"}).
		AddRow("m3", "s", "ai", "third").
		AddRow("m2", "s", "human", "second").
		AddRow("m1", "s", "ai", "first")
	mock.ExpectQuery("SELECT message_id, session_id, sender, message_text FROM messages").
		WithArgs("s", sqlmock.AnyArg(), 5).
		WillReturnRows(rows)

	got, err := store.GetRecentMessages(context.Background(), "s", 5)
	if err != nil {
		t.Fatalf("GetRecentMessages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d messages, want 3", len(got))
	}
	wantContent := []string{"first", "second", "third"}
	wantRole := []string{"AI", "HUMAN", "AI"}
	for i := range got {
		if got[i].Content != wantContent[i] || got[i].Role != wantRole[i] {
			t.Errorf("got[%d] = %s/%s, want %s/%s", i, got[i].Role, got[i].Content, wantRole[i], wantContent[i])
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetRecentMessagesZeroLimit(t *testing.T) {
	store, mock := newMockStore(t)
	got, err := store.GetRecentMessages(context.Background(), "s", 0)
	if err != nil || got != nil {
		t.Fatalf("GetRecentMessages() = %v, %v", got, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestValidSender(t *testing.T) {
	tests := map[string]bool{"ai": true, "human": true, "AI": false, "": false, "bot": false}
	for in, want := range tests {
		if got := ValidSender(in); got != want {
			t.Errorf("ValidSender(%q) = %v, want %v", in, got, want)
		}
	}
}
