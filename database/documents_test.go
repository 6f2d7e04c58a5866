package database

import (
	"context"
	"errors"
	"testing"

	apperrors "tas-agent/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
)

func TestDocumentStoreSearch(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewDocumentStore(db, zap.NewNop())
	rows := sqlmock.NewRows([]string{"data_id", "doc_index", "content", "similarity"}).
		AddRow("frida_kahlo", 3, "Kahlo painted self-portraits.", 0.91).
		AddRow("diego_rivera", 0, "Rivera painted murals.", 0.72)
	mock.ExpectQuery("SELECT data_id, doc_index, content").
		WithArgs(sqlmock.AnyArg(), 4).
		WillReturnRows(rows)

	docs, err := store.Search(context.Background(), []float32{0.1, 0.2}, 4)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].DataID != "frida_kahlo" || docs[0].DocIndex != 3 || docs[0].Similarity != 0.91 {
		t.Fatalf("unexpected first document: %+v", docs[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDocumentStoreSearchError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewDocumentStore(db, zap.NewNop())
	mock.ExpectQuery("SELECT data_id").WillReturnError(errors.New("extension vector missing"))

	if _, err := store.Search(context.Background(), []float32{1}, 2); !errors.Is(err, apperrors.ErrDatabaseOperation) {
		t.Fatalf("error = %v, want ErrDatabaseOperation", err)
	}
}

func TestDocumentStoreSearchEmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewDocumentStore(db, zap.NewNop())
	if docs, err := store.Search(context.Background(), nil, 4); docs != nil || err != nil {
		t.Fatalf("Search(nil) = %v, %v", docs, err)
	}
	if docs, err := store.Search(context.Background(), []float32{1}, 0); docs != nil || err != nil {
		t.Fatalf("Search(k=0) = %v, %v", docs, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected queries: %v", err)
	}
}

func TestDocumentStoreAddDocument(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	store := NewDocumentStore(db, zap.NewNop())
	mock.ExpectExec("INSERT INTO documents").
		WithArgs("cubism", 1, "Cubism fractured the picture plane.", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	doc := Document{DataID: "cubism", DocIndex: 1, Content: "Cubism fractured the picture plane."}
	if err := store.AddDocument(context.Background(), doc, []float32{0.3}); err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
