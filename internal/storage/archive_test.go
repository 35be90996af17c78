package storage

import (
	"context"
	"testing"
	"time"

	"github.com/DukeRupert/rams/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationKey(t *testing.T) {
	id := uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	assert.Equal(t, "generations/123e4567-e89b-12d3-a456-426614174000.json", GenerationKey(id))
}

func TestArchive_SaveLoad(t *testing.T) {
	archive := NewArchive(newTestLocal(t), testLogger())
	ctx := context.Background()

	doc := Document{
		ID:   uuid.New(),
		Task: "Install ceiling fan",
		Result: domain.GenerationResult{
			SequenceOfWorks:   "*1. Prep:*\n- check site",
			PlantAndMaterials: "- Drill",
			PPE:               "- Safety helmet (EN 397)",
		},
		Provider:  "mock",
		Model:     "mock-ai-v1",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	key, err := archive.Save(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, GenerationKey(doc.ID), key)

	got, err := archive.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc, *got)
}

func TestArchive_LoadMissing(t *testing.T) {
	archive := NewArchive(newTestLocal(t), testLogger())

	_, err := archive.Load(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestArchive_SaveRequiresID(t *testing.T) {
	archive := NewArchive(newTestLocal(t), testLogger())

	_, err := archive.Save(context.Background(), Document{Task: "x"})
	assert.Error(t, err)
}
