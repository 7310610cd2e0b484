package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/sagecor-solutions/resumeintel/internal/domain"
)

// ChunkConfig controls the fixed-window fallback splitter.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig provides the standard window size and overlap.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 500, Overlap: 50}
}

const (
	sectionPromptLimit = 3000
	minSectionChars    = 50
)

const sectionSystemPrompt = "You are a resume analysis assistant. Respond with valid JSON only, no explanation."

const sectionPromptTemplate = `Analyze the following resume content and identify the main sections.

Return a JSON list of sections with their approximate start positions (character index).
Each section should have: "section_name", "start_position"

Common sections include: Contact Information, Summary/Objective, Experience, Education, Skills, Certifications, Projects, etc.

Return ONLY valid JSON without any explanation.

Resume Content:
%s`

// Piece is one retrieval unit produced by the chunker, before it is attached
// to a document and embedded.
type Piece struct {
	Text         string
	Kind         domain.ChunkKind
	SectionLabel string
	Start        int
	End          int
}

type section struct {
	Name  string `json:"section_name"`
	Start int    `json:"start_position"`
}

// Chunker splits document text into retrieval units. With a model attached it
// prefers semantic sections; it always falls back to fixed windows, so Chunk
// never fails and never returns zero pieces for non-empty input.
type Chunker struct {
	llm Completer
	cfg ChunkConfig
}

// NewChunker creates a chunker. A nil llm disables section identification and
// every document gets fixed windows.
func NewChunker(llm Completer, cfg ChunkConfig) *Chunker {
	if cfg.Size <= 0 {
		cfg = DefaultChunkConfig()
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		cfg.Overlap = DefaultChunkConfig().Overlap
	}
	return &Chunker{llm: llm, cfg: cfg}
}

// Chunk splits text into ordered pieces.
func (c *Chunker) Chunk(ctx context.Context, text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if c.llm != nil {
		if pieces := c.semanticChunks(ctx, text); len(pieces) > 0 {
			return pieces
		}
		log.Printf("chunking: no usable sections identified, using fixed windows")
	}
	return fixedWindows(text, c.cfg)
}

func (c *Chunker) semanticChunks(ctx context.Context, text string) []Piece {
	prompt := text
	if len(prompt) > sectionPromptLimit {
		prompt = truncateOnRune(prompt, sectionPromptLimit)
	}

	raw, err := c.llm.Complete(ctx, sectionSystemPrompt, fmt.Sprintf(sectionPromptTemplate, prompt))
	if err != nil {
		log.Printf("chunking: section identification failed: %v", err)
		return nil
	}

	sections, ok := parseSections(raw)
	if !ok {
		return nil
	}

	var pieces []Piece
	prevStart := -1
	for i, s := range sections {
		// Offsets must be strictly increasing and inside the text.
		if s.Start <= prevStart || s.Start < 0 || s.Start >= len(text) {
			continue
		}
		prevStart = s.Start

		end := len(text)
		if i+1 < len(sections) && sections[i+1].Start > s.Start && sections[i+1].Start <= len(text) {
			end = sections[i+1].Start
		}

		start := snapToRune(text, s.Start)
		end = snapToRune(text, end)
		span := strings.TrimSpace(text[start:end])
		if len(span) <= minSectionChars {
			continue
		}

		name := strings.TrimSpace(s.Name)
		if name == "" {
			name = fmt.Sprintf("Section %d", i+1)
		}
		pieces = append(pieces, Piece{
			Text:         span,
			Kind:         domain.ChunkKindSemanticSection,
			SectionLabel: name,
			Start:        start,
			End:          end,
		})
	}
	return pieces
}

func parseSections(raw string) ([]section, bool) {
	var sections []section
	if err := json.Unmarshal([]byte(raw), &sections); err == nil {
		return sections, len(sections) > 0
	}
	span, ok := firstBalanced(raw, '[', ']')
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal([]byte(span), &sections); err != nil {
		return nil, false
	}
	return sections, len(sections) > 0
}

// fixedWindows tiles the whole text with overlapping windows. Boundaries are
// snapped to rune starts, so the recorded offset ranges always cover the full
// input with at least the configured overlap between neighbours.
func fixedWindows(text string, cfg ChunkConfig) []Piece {
	var pieces []Piece
	start := 0
	for start < len(text) {
		end := start + cfg.Size
		if end >= len(text) {
			end = len(text)
		} else {
			end = snapToRune(text, end)
		}

		pieces = append(pieces, Piece{
			Text:  text[start:end],
			Kind:  domain.ChunkKindFixedWindow,
			Start: start,
			End:   end,
		})

		if end == len(text) {
			break
		}
		next := snapToRune(text, end-cfg.Overlap)
		if next <= start {
			next = end
		}
		start = next
	}
	return pieces
}

// snapToRune moves pos back to the nearest rune boundary.
func snapToRune(s string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(s) {
		return len(s)
	}
	for pos > 0 && !utf8.RuneStart(s[pos]) {
		pos--
	}
	return pos
}

func truncateOnRune(s string, limit int) string {
	return s[:snapToRune(s, limit)]
}
