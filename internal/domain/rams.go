// Package domain contains core business types and interfaces.
//
// This file defines the RAMS (Risk Assessment Method Statement) generation
// types: the request, the per-channel prompt and completion values, and the
// assembled result returned to callers.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Channel
// =============================================================================

// Channel identifies one of the three independent sections of a RAMS document.
type Channel string

const (
	// ChannelSequence produces the staged sequence of works.
	ChannelSequence Channel = "sequence"

	// ChannelMaterials produces the plant, tools and materials list.
	ChannelMaterials Channel = "materials"

	// ChannelPPE produces the personal protective equipment list.
	ChannelPPE Channel = "ppe"
)

// AllChannels returns every channel in canonical document order.
func AllChannels() []Channel {
	return []Channel{ChannelSequence, ChannelMaterials, ChannelPPE}
}

// String returns the string representation of the channel.
func (c Channel) String() string {
	return string(c)
}

// Valid returns true if the channel is a recognized value.
func (c Channel) Valid() bool {
	switch c {
	case ChannelSequence, ChannelMaterials, ChannelPPE:
		return true
	}
	return false
}

// =============================================================================
// Request and prompt types
// =============================================================================

// GenerationRequest is the inbound request to generate a RAMS document.
type GenerationRequest struct {
	Task string `json:"task"`
}

// Validate checks that the task is present.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Task) == "" {
		return Invalid("rams.generate", "Missing or invalid task")
	}
	return nil
}

// PromptSpec is a single prompt to send to the completion backend.
// One is built per channel per request and discarded after use.
type PromptSpec struct {
	Channel           Channel
	PromptText        string
	MaxOutputTokens   int
	Temperature       float64
	TopP              float64
	SystemInstruction string
	Seed              *int64 // best-effort reproducibility hint; nil disables
}

// Validate checks the prompt constraints the completion invoker relies on.
func (p PromptSpec) Validate() error {
	const op = "rams.prompt"
	if !p.Channel.Valid() {
		return Invalid(op, fmt.Sprintf("unknown channel %q", p.Channel))
	}
	if strings.TrimSpace(p.PromptText) == "" {
		return Invalid(op, "prompt text is required")
	}
	if p.MaxOutputTokens <= 0 {
		return Invalid(op, "max output tokens must be positive")
	}
	if p.Temperature < 0 || p.Temperature > 2 {
		return Invalid(op, "temperature must be between 0 and 2")
	}
	return nil
}

// Usage records token consumption for one completion call.
type Usage struct {
	Model        string
	InputTokens  int
	OutputTokens int
}

// Add returns the sum of two usage values. The model of u is kept unless empty.
func (u Usage) Add(o Usage) Usage {
	model := u.Model
	if model == "" {
		model = o.Model
	}
	return Usage{
		Model:        model,
		InputTokens:  u.InputTokens + o.InputTokens,
		OutputTokens: u.OutputTokens + o.OutputTokens,
	}
}

// RawCompletion is the unprocessed text returned for one channel.
type RawCompletion struct {
	Channel            Channel
	Text               string
	SucceededOnAttempt int // 1 or 2
	Usage              Usage
}

// NormalizedSection is a channel's text after normalization.
type NormalizedSection struct {
	Channel Channel
	Text    string
}

// =============================================================================
// Result
// =============================================================================

// GenerationResult is the assembled RAMS document returned on success.
// All three fields are always present in JSON, possibly as empty strings.
type GenerationResult struct {
	SequenceOfWorks   string `json:"sequenceOfWorks"`
	PlantAndMaterials string `json:"plantAndMaterials"`
	PPE               string `json:"ppe"`
}

// Set stores text in the field that belongs to the channel.
func (r *GenerationResult) Set(ch Channel, text string) {
	switch ch {
	case ChannelSequence:
		r.SequenceOfWorks = text
	case ChannelMaterials:
		r.PlantAndMaterials = text
	case ChannelPPE:
		r.PPE = text
	}
}

// =============================================================================
// Generation ledger record
// =============================================================================

// GenerationStatus is the outcome of a generation request.
type GenerationStatus string

const (
	GenerationStatusSucceeded GenerationStatus = "succeeded"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// String returns the string representation of the status.
func (s GenerationStatus) String() string {
	return string(s)
}

// Generation is the ledger record kept for each generation request.
type Generation struct {
	ID         uuid.UUID
	Task       string
	Status     GenerationStatus
	ErrorCode  string // empty on success
	Provider   string
	Model      string
	Attempts   map[Channel]int
	Usage      Usage
	Duration   time.Duration
	ArchiveKey string // empty when the document was not archived
	CreatedAt  time.Time
}

// TotalAttempts sums the attempts made across channels.
func (g Generation) TotalAttempts() int {
	total := 0
	for _, n := range g.Attempts {
		total += n
	}
	return total
}
