package rams

import (
	"fmt"
	"os"

	"github.com/DukeRupert/rams/internal/domain"
	"gopkg.in/yaml.v3"
)

// ChannelSettings tunes the prompt and cleanup for a single channel.
type ChannelSettings struct {
	MaxOutputTokens   int
	Temperature       float64
	SystemInstruction string
	Normalize         NormalizeMode
}

// Profile holds the per-channel generation settings.
type Profile struct {
	TopP     float64
	Seed     *int64
	Channels map[domain.Channel]ChannelSettings
}

// DefaultSeed is passed to backends that accept a sampling seed.
const DefaultSeed int64 = 42

// DefaultProfile returns the tuned defaults: a generous budget for the
// sequence of works, a small one for the materials list, moderate for PPE.
func DefaultProfile() Profile {
	seed := DefaultSeed
	return Profile{
		TopP: 1,
		Seed: &seed,
		Channels: map[domain.Channel]ChannelSettings{
			domain.ChannelSequence: {
				MaxOutputTokens:   1400,
				Temperature:       0.2,
				SystemInstruction: DefaultSystemInstruction,
				Normalize:         NormalizeFull,
			},
			domain.ChannelMaterials: {
				MaxOutputTokens:   600,
				Temperature:       0.2,
				SystemInstruction: DefaultSystemInstruction,
				Normalize:         NormalizeFull,
			},
			domain.ChannelPPE: {
				MaxOutputTokens:   900,
				Temperature:       0.2,
				SystemInstruction: DefaultSystemInstruction,
				Normalize:         NormalizeFull,
			},
		},
	}
}

// Channel returns the settings for ch, falling back to the defaults.
func (p Profile) Channel(ch domain.Channel) ChannelSettings {
	if s, ok := p.Channels[ch]; ok {
		return s
	}
	return DefaultProfile().Channels[ch]
}

// NormalizeModes returns the configured normalization mode per channel.
func (p Profile) NormalizeModes() map[domain.Channel]NormalizeMode {
	modes := make(map[domain.Channel]NormalizeMode, len(domain.AllChannels()))
	for _, ch := range domain.AllChannels() {
		modes[ch] = p.Channel(ch).Normalize
	}
	return modes
}

// WithSeed returns a copy of the profile using seed; nil disables seeding.
func (p Profile) WithSeed(seed *int64) Profile {
	out := p.clone()
	if seed == nil {
		out.Seed = nil
		return out
	}
	s := *seed
	out.Seed = &s
	return out
}

func (p Profile) clone() Profile {
	out := Profile{TopP: p.TopP, Channels: make(map[domain.Channel]ChannelSettings, len(p.Channels))}
	if p.Seed != nil {
		s := *p.Seed
		out.Seed = &s
	}
	for ch, s := range p.Channels {
		out.Channels[ch] = s
	}
	return out
}

// Validate checks every channel has usable settings.
func (p Profile) Validate() error {
	if p.TopP < 0 || p.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1, got %v", p.TopP)
	}
	for ch, s := range p.Channels {
		if !ch.Valid() {
			return fmt.Errorf("unknown channel %q", ch)
		}
		if s.MaxOutputTokens <= 0 {
			return fmt.Errorf("channel %s: max_output_tokens must be positive, got %d", ch, s.MaxOutputTokens)
		}
		if s.Temperature < 0 || s.Temperature > 2 {
			return fmt.Errorf("channel %s: temperature must be between 0 and 2, got %v", ch, s.Temperature)
		}
		if !s.Normalize.Valid() {
			return fmt.Errorf("channel %s: normalize must be 'full' or 'trim', got %q", ch, s.Normalize)
		}
	}
	return nil
}

// profileFile is the YAML shape of a profile override file. Pointer fields
// distinguish "not set" from zero values.
type profileFile struct {
	TopP     *float64                       `yaml:"top_p"`
	Seed     *int64                         `yaml:"seed"` // negative disables seeding
	Channels map[string]channelSettingsFile `yaml:"channels"`
}

type channelSettingsFile struct {
	MaxOutputTokens   *int     `yaml:"max_output_tokens"`
	Temperature       *float64 `yaml:"temperature"`
	SystemInstruction *string  `yaml:"system_instruction"`
	Normalize         *string  `yaml:"normalize"`
}

// ParseProfile overlays YAML settings onto the default profile.
//
// Example:
//
//	top_p: 1
//	seed: 7
//	channels:
//	  materials:
//	    max_output_tokens: 400
//	    normalize: trim
func ParseProfile(data []byte) (Profile, error) {
	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}

	profile := DefaultProfile()
	if file.TopP != nil {
		profile.TopP = *file.TopP
	}
	if file.Seed != nil {
		if *file.Seed < 0 {
			profile = profile.WithSeed(nil)
		} else {
			profile = profile.WithSeed(file.Seed)
		}
	}
	for name, override := range file.Channels {
		ch := domain.Channel(name)
		if !ch.Valid() {
			return Profile{}, fmt.Errorf("parse profile: unknown channel %q", name)
		}
		s := profile.Channels[ch]
		if override.MaxOutputTokens != nil {
			s.MaxOutputTokens = *override.MaxOutputTokens
		}
		if override.Temperature != nil {
			s.Temperature = *override.Temperature
		}
		if override.SystemInstruction != nil {
			s.SystemInstruction = *override.SystemInstruction
		}
		if override.Normalize != nil {
			s.Normalize = NormalizeMode(*override.Normalize)
		}
		profile.Channels[ch] = s
	}

	if err := profile.Validate(); err != nil {
		return Profile{}, fmt.Errorf("invalid profile: %w", err)
	}
	return profile, nil
}

// LoadProfile reads a YAML profile from path. An empty path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}
