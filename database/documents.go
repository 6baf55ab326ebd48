package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
	loadSql "github.com/siherrmann/tripler/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(document *model.Document) error
	SelectDocument(id int64) (*model.Document, error)
	SelectAllDocuments() ([]*model.Document, error)
	UpdateDocument(document *model.Document) error
	DeleteDocument(id int64) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document
func (h *DocumentsDBHandler) InsertDocument(document *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4, $5)`,
		document.WorldID,
		document.DocumentType,
		document.Title,
		document.Source,
		document.Metadata,
	)

	return scanDocument(row, document)
}

// SelectDocument retrieves a document by ID
func (h *DocumentsDBHandler) SelectDocument(id int64) (*model.Document, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		id,
	)

	document := &model.Document{}
	if err := scanDocument(row, document); err != nil {
		return nil, err
	}

	return document, nil
}

// SelectAllDocuments retrieves all documents
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		document := &model.Document{}
		if err := scanDocument(rows, document); err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// UpdateDocument updates a document by ID
func (h *DocumentsDBHandler) UpdateDocument(document *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_document($1, $2, $3, $4, $5, $6)`,
		document.ID,
		document.WorldID,
		document.DocumentType,
		document.Title,
		document.Source,
		document.Metadata,
	)

	return scanDocument(row, document)
}

// DeleteDocument deletes a document by ID.
// Owned chunks cascade; triples referencing the document do not.
func (h *DocumentsDBHandler) DeleteDocument(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_document($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanDocument(s rowScanner, document *model.Document) error {
	var worldID sql.NullInt64

	err := s.Scan(
		&document.ID,
		&document.RID,
		&worldID,
		&document.DocumentType,
		&document.Title,
		&document.Source,
		&document.Metadata,
		&document.CreatedAt,
		&document.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if worldID.Valid {
		document.WorldID = &worldID.Int64
	}

	return nil
}
