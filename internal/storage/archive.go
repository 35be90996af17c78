package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/rams/internal/domain"
	"github.com/google/uuid"
)

// MaxDocumentSize bounds a single archived document.
const MaxDocumentSize = 1 << 20

// Document is the archived form of a successful generation.
type Document struct {
	ID        uuid.UUID               `json:"id"`
	Task      string                  `json:"task"`
	Result    domain.GenerationResult `json:"result"`
	Provider  string                  `json:"provider"`
	Model     string                  `json:"model"`
	CreatedAt time.Time               `json:"createdAt"`
}

// Archive stores generation documents as JSON objects in a Storage backend.
type Archive struct {
	store  Storage
	logger *slog.Logger
}

// NewArchive creates an Archive over store.
func NewArchive(store Storage, logger *slog.Logger) *Archive {
	return &Archive{store: store, logger: logger}
}

// Save writes doc under GenerationKey(doc.ID) and returns the key.
func (a *Archive) Save(ctx context.Context, doc Document) (string, error) {
	if doc.ID == uuid.Nil {
		return "", fmt.Errorf("archive save: document id is required")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("archive save: encode document: %w", err)
	}

	key := GenerationKey(doc.ID)
	err = a.store.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: ContentTypeJSON,
		MaxSize:     MaxDocumentSize,
		Overwrite:   true,
	})
	if err != nil {
		return "", fmt.Errorf("archive save: %w", err)
	}
	return key, nil
}

// Load reads the document for id. Returns a domain ENOTFOUND error when
// nothing is archived under that id.
func (a *Archive) Load(ctx context.Context, id uuid.UUID) (*Document, error) {
	const op = "archive.load"

	body, _, err := a.store.Get(ctx, GenerationKey(id))
	if err != nil {
		if IsNotFound(err) {
			return nil, domain.NotFound(op, "generation", id.String())
		}
		return nil, domain.Internal(err, op, "failed to read archived generation")
	}
	defer body.Close()

	var doc Document
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, domain.Internal(err, op, "failed to decode archived generation")
	}
	return &doc, nil
}
