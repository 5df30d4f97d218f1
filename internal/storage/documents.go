package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/common"
	"github.com/cognivore/cignaenvoy-tracker-sub000/internal/model"
)

const documentColumns = `id, source_type, thread_id, subject, snippet, ocr_text,
	filename, sender_name, sender_email, classification, date,
	calendar_start, calendar_end, calendar_summary, calendar_location,
	detected_amounts, payment_override, medical_keywords, archived_at, created_at`

// SaveDocuments upserts documents in a single transaction.
func (s *SQLiteStorage) SaveDocuments(ctx context.Context, documents []model.Document) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (
			id, source_type, thread_id, subject, snippet, ocr_text,
			filename, sender_name, sender_email, classification, date,
			calendar_start, calendar_end, calendar_summary, calendar_location,
			detected_amounts, payment_override, medical_keywords, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_type = excluded.source_type,
			thread_id = excluded.thread_id,
			subject = excluded.subject,
			snippet = excluded.snippet,
			ocr_text = excluded.ocr_text,
			filename = excluded.filename,
			sender_name = excluded.sender_name,
			sender_email = excluded.sender_email,
			classification = excluded.classification,
			date = excluded.date,
			calendar_start = excluded.calendar_start,
			calendar_end = excluded.calendar_end,
			calendar_summary = excluded.calendar_summary,
			calendar_location = excluded.calendar_location,
			detected_amounts = excluded.detected_amounts,
			payment_override = excluded.payment_override,
			medical_keywords = excluded.medical_keywords,
			archived_at = excluded.archived_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare document insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, doc := range documents {
		if err := validateString(doc.ID, "document id"); err != nil {
			return err
		}

		amountsJSON, err := marshalNullable(doc.DetectedAmounts)
		if err != nil {
			return err
		}
		overrideJSON, err := marshalNullable(doc.PaymentOverride)
		if err != nil {
			return err
		}
		keywordsJSON, err := marshalNullable(doc.MedicalKeywords)
		if err != nil {
			return err
		}

		if _, err := stmt.ExecContext(ctx,
			doc.ID, string(doc.SourceType), doc.ThreadID, doc.Subject, doc.Snippet, doc.OCRText,
			doc.Filename, doc.SenderName, doc.SenderEmail, doc.Classification, doc.Date,
			doc.CalendarStart, doc.CalendarEnd, doc.CalendarSummary, doc.CalendarLocation,
			amountsJSON, overrideJSON, keywordsJSON, doc.ArchivedAt,
		); err != nil {
			return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// GetAllDocuments returns every document.
func (s *SQLiteStorage) GetAllDocuments(ctx context.Context) ([]model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var documents []model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, *doc)
	}
	return documents, rows.Err()
}

// GetDocumentByID returns one document or common.ErrNotFound.
func (s *SQLiteStorage) GetDocumentByID(ctx context.Context, id string) (*model.Document, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrNotFound)
	}
	return doc, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var sourceType string
	var threadID, subject, snippet, ocrText sql.NullString
	var filename, senderName, senderEmail, classification sql.NullString
	var calendarSummary, calendarLocation sql.NullString
	var amountsJSON, overrideJSON, keywordsJSON sql.NullString

	if err := row.Scan(
		&doc.ID, &sourceType, &threadID, &subject, &snippet, &ocrText,
		&filename, &senderName, &senderEmail, &classification, &doc.Date,
		&doc.CalendarStart, &doc.CalendarEnd, &calendarSummary, &calendarLocation,
		&amountsJSON, &overrideJSON, &keywordsJSON, &doc.ArchivedAt, &doc.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	doc.SourceType = model.DocumentSource(sourceType)
	doc.ThreadID = threadID.String
	doc.Subject = subject.String
	doc.Snippet = snippet.String
	doc.OCRText = ocrText.String
	doc.Filename = filename.String
	doc.SenderName = senderName.String
	doc.SenderEmail = senderEmail.String
	doc.Classification = classification.String
	doc.CalendarSummary = calendarSummary.String
	doc.CalendarLocation = calendarLocation.String

	if err := unmarshalNullable(amountsJSON, &doc.DetectedAmounts); err != nil {
		return nil, err
	}
	if overrideJSON.Valid {
		var override model.PaymentOverride
		if err := unmarshalNullable(overrideJSON, &override); err != nil {
			return nil, err
		}
		doc.PaymentOverride = &override
	}
	if err := unmarshalNullable(keywordsJSON, &doc.MedicalKeywords); err != nil {
		return nil, err
	}

	return &doc, nil
}
