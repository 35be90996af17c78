package rams

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/rams/internal/domain"
)

// DefaultSystemInstruction frames every channel prompt.
const DefaultSystemInstruction = "You are an experienced UK construction health and safety adviser " +
	"writing content for Risk Assessment Method Statements (RAMS). " +
	"Answer with the requested content only."

// buildSequencePrompt creates the prompt for the staged sequence of works
func buildSequencePrompt(task string) string {
	return fmt.Sprintf(`Produce a detailed, step-by-step RAMS sequence of works for the following task: %s.

Structure the answer as numbered stages, each on its own line in the form "1. Stage name:".
Under each stage give concise, actionable bullet points starting with "- ".
Write it as if for a professional RAMS document, in plain text with no markdown formatting.
End immediately after the final stage. Do not add a summary, conclusion or closing remarks.`, task)
}

// buildMaterialsPrompt creates the prompt for the plant and materials list
func buildMaterialsPrompt(task string) string {
	return fmt.Sprintf(`List the specific plant, tools, access equipment and materials required to carry out %s on a construction site.
Use a simple bullet-point list only, one item name per line starting with "- ".
No sentences, commentary or extra descriptions.`, task)
}

// buildPPEPrompt creates the prompt for the PPE list
func buildPPEPrompt(task string) string {
	return fmt.Sprintf(`For the task "%s", list the Personal Protective Equipment (PPE) required.
Each item must include both the protection level/type and the relevant EN or BS standard in parentheses.
Keep it concise and formatted as a bullet-point list suitable for RAMS submission.
Example format:
- Safety boots (EN ISO 20345, S1P or SB-P)
- Safety helmet (EN 397)
- Safety glasses (EN 166, impact grade F)
- High-visibility clothing (EN ISO 20471, Class 2 or 3)
- Cut-resistant gloves (EN 388, cut level 5)
- Respiratory protection (FFP3, EN 149)
- Hearing protection (EN 352, SNR ≥ 30 dB)
- Fall arrest harness (EN 361)
- Protective overalls (EN 13034, Type 6)
Output only the bullet list.`, task)
}

// BuildPrompts builds one PromptSpec per channel, in canonical order, by
// substituting the task into the fixed templates.
func BuildPrompts(task string, profile Profile) []domain.PromptSpec {
	task = strings.TrimSpace(task)

	specs := make([]domain.PromptSpec, 0, 3)
	for _, ch := range domain.AllChannels() {
		settings := profile.Channel(ch)

		var text string
		switch ch {
		case domain.ChannelSequence:
			text = buildSequencePrompt(task)
		case domain.ChannelMaterials:
			text = buildMaterialsPrompt(task)
		case domain.ChannelPPE:
			text = buildPPEPrompt(task)
		}

		spec := domain.PromptSpec{
			Channel:           ch,
			PromptText:        text,
			MaxOutputTokens:   settings.MaxOutputTokens,
			Temperature:       settings.Temperature,
			TopP:              profile.TopP,
			SystemInstruction: settings.SystemInstruction,
		}
		if profile.Seed != nil {
			seed := *profile.Seed
			spec.Seed = &seed
		}
		specs = append(specs, spec)
	}
	return specs
}
