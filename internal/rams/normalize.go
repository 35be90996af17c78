package rams

import (
	"regexp"
	"strings"

	"github.com/DukeRupert/rams/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// NormalizeMode selects how much cleanup a channel receives.
type NormalizeMode string

const (
	// NormalizeFull applies every rule in the pipeline.
	NormalizeFull NormalizeMode = "full"

	// NormalizeTrim only trims surrounding whitespace.
	NormalizeTrim NormalizeMode = "trim"
)

// Valid returns true if the mode is a recognized value.
func (m NormalizeMode) Valid() bool {
	return m == NormalizeFull || m == NormalizeTrim
}

// HeadingMarker wraps numbered headings in sequence output. It is deliberately
// not one of the emphasis markers StripEmphasis removes.
const HeadingMarker = "*"

// maxPasses bounds the fixed-point loop in Normalize.
const maxPasses = 4

// Rule is a single pure text rewrite in the normalization pipeline.
type Rule struct {
	Name string
	// Channels limits the rule to the listed channels; nil means all channels.
	Channels []domain.Channel
	Apply    func(string) string
}

func (r Rule) appliesTo(ch domain.Channel) bool {
	if len(r.Channels) == 0 {
		return true
	}
	for _, c := range r.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// Rules is the ordered cleanup pipeline. Later rules assume earlier ones ran.
var Rules = []Rule{
	{Name: "strip_opener", Apply: StripOpener},
	{Name: "strip_code_fences", Apply: StripCodeFences},
	{Name: "strip_heading_markers", Apply: StripHeadingMarkers},
	{Name: "strip_emphasis", Apply: StripEmphasis},
	{Name: "wrap_sequence_headings", Channels: []domain.Channel{domain.ChannelSequence}, Apply: WrapSequenceHeadings},
	{Name: "normalize_bullets", Apply: NormalizeBullets},
	{Name: "collapse_blank_lines", Apply: CollapseBlankLines},
	{Name: "trim", Apply: strings.TrimSpace},
}

var (
	openerPattern       = regexp.MustCompile(`(?i)^\s*(?:[#>]+[ \t]*|[*_~]+)?(?:certainly|sure|of course|absolutely|here(?:'s|’s| is| are))(?:[ \t!,.:;?*_~][^\n]*)?(?:\n|$)`)
	fenceOpenPattern    = regexp.MustCompile("```|~~~")
	strayFencePattern   = regexp.MustCompile("(?m)^[ \t]*(?:```|~~~)[^\n]*(?:\n|$)")
	headingPattern      = regexp.MustCompile(`(?m)^([ \t]*)#{1,6}[ \t]*`)
	boldPattern         = regexp.MustCompile(`\*\*(.+?)\*\*`)
	underlinePattern    = regexp.MustCompile(`__(.+?)__`)
	strikePattern       = regexp.MustCompile(`~~(.+?)~~`)
	orphanBoldPattern   = regexp.MustCompile(`\*\*+`)
	topHeadingPattern   = regexp.MustCompile(`(?m)^[ \t]*(\d+)\.[ \t]+([A-Z][^\n]*:)[ \t]*$`)
	subHeadingPattern   = regexp.MustCompile(`(?m)^[ \t]*(\d+\.\d+)\.?[ \t]+([A-Z][^\n]*:)[ \t]*$`)
	asteriskBullet      = regexp.MustCompile(`(?m)^([ \t]*)\*[ \t]+`)
	trailingSpace       = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRunPattern     = regexp.MustCompile(`\n{3,}`)
	lineEndingsReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

// StripOpener removes leading conversational filler lines such as
// "Certainly! Here is the list:".
func StripOpener(s string) string {
	for {
		loc := openerPattern.FindStringIndex(s)
		if loc == nil {
			return s
		}
		s = s[loc[1]:]
	}
}

// StripCodeFences removes fenced code blocks entirely, then any unpaired
// fence lines left behind. A block opened with ``` only closes at ``` and
// one opened with ~~~ only at ~~~.
func StripCodeFences(s string) string {
	var b strings.Builder
	for {
		loc := fenceOpenPattern.FindStringIndex(s)
		if loc == nil {
			break
		}
		fence := s[loc[0]:loc[1]]
		end := strings.Index(s[loc[1]:], fence)
		if end < 0 {
			b.WriteString(s[:loc[1]])
			s = s[loc[1]:]
			continue
		}
		b.WriteString(s[:loc[0]])
		s = s[loc[1]+end+len(fence):]
	}
	b.WriteString(s)
	return strayFencePattern.ReplaceAllString(b.String(), "")
}

// StripHeadingMarkers removes leading # heading markers, keeping the text.
func StripHeadingMarkers(s string) string {
	return headingPattern.ReplaceAllString(s, "$1")
}

// StripEmphasis removes paired **, __ and ~~ markers, keeping the enclosed text.
func StripEmphasis(s string) string {
	s = boldPattern.ReplaceAllString(s, "$1")
	s = underlinePattern.ReplaceAllString(s, "$1")
	s = strikePattern.ReplaceAllString(s, "$1")
	return orphanBoldPattern.ReplaceAllString(s, "")
}

// WrapSequenceHeadings wraps numbered stage headings ("1. Preparation:") and
// sub-headings ("1.1 Setting out:") in HeadingMarker.
func WrapSequenceHeadings(s string) string {
	s = topHeadingPattern.ReplaceAllString(s, HeadingMarker+"$1. $2"+HeadingMarker)
	return subHeadingPattern.ReplaceAllString(s, HeadingMarker+"$1 $2"+HeadingMarker)
}

// NormalizeBullets rewrites "* item" bullets as "- item".
func NormalizeBullets(s string) string {
	return asteriskBullet.ReplaceAllString(s, "$1- ")
}

// CollapseBlankLines strips trailing spaces and reduces runs of blank lines
// to a single blank line.
func CollapseBlankLines(s string) string {
	s = trailingSpace.ReplaceAllString(s, "")
	return blankRunPattern.ReplaceAllString(s, "\n\n")
}

// Normalizer cleans raw model output per channel.
type Normalizer struct {
	modes map[domain.Channel]NormalizeMode
}

// NewNormalizer creates a Normalizer. Channels missing from modes use NormalizeFull.
func NewNormalizer(modes map[domain.Channel]NormalizeMode) Normalizer {
	m := make(map[domain.Channel]NormalizeMode, len(modes))
	for ch, mode := range modes {
		m[ch] = mode
	}
	return Normalizer{modes: m}
}

// Mode returns the normalization mode used for the channel.
func (n Normalizer) Mode(ch domain.Channel) NormalizeMode {
	if mode, ok := n.modes[ch]; ok && mode.Valid() {
		return mode
	}
	return NormalizeFull
}

// Normalize cleans raw text for the channel. It never fails; empty input
// yields an empty section.
func (n Normalizer) Normalize(ch domain.Channel, raw string) domain.NormalizedSection {
	if n.Mode(ch) == NormalizeTrim {
		return domain.NormalizedSection{Channel: ch, Text: strings.TrimSpace(raw)}
	}
	return Normalize(ch, raw)
}

// Normalize applies the full rule pipeline to raw text. The pipeline is
// repeated until the text stops changing, so Normalize is idempotent.
func Normalize(ch domain.Channel, raw string) domain.NormalizedSection {
	if strings.TrimSpace(raw) == "" {
		return domain.NormalizedSection{Channel: ch}
	}

	text := lineEndingsReplacer.Replace(norm.NFC.String(raw))
	for i := 0; i < maxPasses; i++ {
		next := applyRules(ch, text)
		if next == text {
			break
		}
		text = next
	}
	return domain.NormalizedSection{Channel: ch, Text: text}
}

func applyRules(ch domain.Channel, s string) string {
	for _, rule := range Rules {
		if rule.appliesTo(ch) {
			s = rule.Apply(s)
		}
	}
	return s
}
