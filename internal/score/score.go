// Package score turns story text into content profiles by prompting a
// language model and parsing its structured reply.
package score

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

const systemPrompt = `You are a content analyst for a story library. Analyze the given story text and reply with ONLY a JSON object, no prose, matching exactly this shape:
{
  "maturity": {
    "restricted": false,
    "present": ["category", ...],
    "absent": ["category", ...],
    "examples": ["short quote", ...]
  },
  "difficulty": {
    "education_years": 8,
    "reading_level": "middle",
    "words": ["difficult word", ...],
    "phrases": ["difficult phrase", ...]
  },
  "topics": [{"id": "short-kebab-id", "examples": ["short quote", ...]}, ...],
  "ideologies": [{"id": "short-kebab-id", "presence": 0.5, "examples": ["short quote", ...]}, ...]
}
"restricted" is true when the text is unsuitable for minors. "education_years" is the years of schooling a reader needs. "presence" is 0 to 1.`

// scorePayload mirrors the JSON shape the model is asked for.
type scorePayload struct {
	Maturity struct {
		Restricted bool     `json:"restricted"`
		Present    []string `json:"present"`
		Absent     []string `json:"absent"`
		Examples   []string `json:"examples"`
	} `json:"maturity"`
	Difficulty struct {
		EducationYears float64  `json:"education_years"`
		ReadingLevel   string   `json:"reading_level"`
		Words          []string `json:"words"`
		Phrases        []string `json:"phrases"`
	} `json:"difficulty"`
	Topics []struct {
		ID       string   `json:"id"`
		Examples []string `json:"examples"`
	} `json:"topics"`
	Ideologies []struct {
		ID       string   `json:"id"`
		Presence float64  `json:"presence"`
		Examples []string `json:"examples"`
	} `json:"ideologies"`
}

// Scorer scores story text chunk by chunk and merges the results into
// one profile.
type Scorer struct {
	model     Generator
	chunkSize int
	logger    *slog.Logger
}

func NewScorer(model Generator, chunkSize int, logger *slog.Logger) *Scorer {
	if chunkSize <= 0 {
		chunkSize = 4000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{model: model, chunkSize: chunkSize, logger: logger}
}

// Score analyzes the story text and returns a profile. The profile's
// backing path is left empty; the caller assigns it before saving. Long
// texts are scored per chunk and merged: booleans OR, numeric scores
// take the maximum, lists union.
func (s *Scorer) Score(ctx context.Context, story *library.Story, text string) (*library.Profile, error) {
	chunks := splitChunks(text, s.chunkSize)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("story %s: no text to score", story.ID)
	}

	profile := &library.Profile{}
	for i, chunk := range chunks {
		payload, err := s.scoreChunk(ctx, story, chunk, i, len(chunks))
		if err != nil {
			return nil, err
		}
		mergePayload(profile, payload)
	}
	s.logger.Info("scored story", "story", story.ID, "chunks", len(chunks),
		"topics", len(profile.Topics), "ideologies", len(profile.Ideologies))
	return profile, nil
}

func (s *Scorer) scoreChunk(ctx context.Context, story *library.Story, chunk string, i, total int) (*scorePayload, error) {
	userPrompt := fmt.Sprintf("Story: %q by %s (part %d of %d)\n\nText:\n%s",
		story.Title, story.Author, i+1, total, chunk)

	reply, err := s.model.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("score story %s part %d: %w", story.ID, i+1, err)
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(stripFences(reply)), &payload); err != nil {
		return nil, fmt.Errorf("parse score reply for story %s part %d: %w", story.ID, i+1, err)
	}
	return &payload, nil
}

func mergePayload(p *library.Profile, in *scorePayload) {
	if p.Maturity == nil {
		p.Maturity = &library.Maturity{}
	}
	p.Maturity.Restricted = p.Maturity.Restricted || in.Maturity.Restricted
	p.Maturity.Present = mergeStrings(p.Maturity.Present, in.Maturity.Present)
	p.Maturity.Absent = mergeStrings(p.Maturity.Absent, in.Maturity.Absent)
	p.Maturity.Examples = mergeStrings(p.Maturity.Examples, in.Maturity.Examples)

	if p.Difficulty == nil {
		p.Difficulty = &library.Difficulty{}
	}
	if in.Difficulty.EducationYears > p.Difficulty.EducationYears {
		p.Difficulty.EducationYears = in.Difficulty.EducationYears
		p.Difficulty.ReadingLevel = in.Difficulty.ReadingLevel
	}
	p.Difficulty.Words = mergeStrings(p.Difficulty.Words, in.Difficulty.Words)
	p.Difficulty.Phrases = mergeStrings(p.Difficulty.Phrases, in.Difficulty.Phrases)

	for _, t := range in.Topics {
		if t.ID == "" {
			continue
		}
		existing := findTopic(p.Topics, t.ID)
		if existing == nil {
			existing = &library.Topic{ID: t.ID}
			p.Topics = append(p.Topics, existing)
		}
		existing.Examples = mergeStrings(existing.Examples, t.Examples)
	}

	for _, ideo := range in.Ideologies {
		if ideo.ID == "" {
			continue
		}
		existing := findIdeology(p.Ideologies, ideo.ID)
		if existing == nil {
			existing = &library.Ideology{ID: ideo.ID}
			p.Ideologies = append(p.Ideologies, existing)
		}
		if ideo.Presence > existing.Presence {
			existing.Presence = ideo.Presence
		}
		existing.Examples = mergeStrings(existing.Examples, ideo.Examples)
	}
}

func findTopic(topics []*library.Topic, id string) *library.Topic {
	for _, t := range topics {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func findIdeology(ideologies []*library.Ideology, id string) *library.Ideology {
	for _, i := range ideologies {
		if i.ID == id {
			return i
		}
	}
	return nil
}

func mergeStrings(dst, src []string) []string {
	seen := make(map[string]bool, len(dst))
	for _, s := range dst {
		seen[s] = true
	}
	for _, s := range src {
		if s != "" && !seen[s] {
			seen[s] = true
			dst = append(dst, s)
		}
	}
	return dst
}

// splitChunks cuts the text into runs of at most size runes, breaking on
// word boundaries where possible.
func splitChunks(text string, size int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var sb strings.Builder
	for _, word := range words {
		if sb.Len() > 0 && sb.Len()+len(word)+1 > size {
			chunks = append(chunks, sb.String())
			sb.Reset()
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(word)
	}
	if sb.Len() > 0 {
		chunks = append(chunks, sb.String())
	}
	return chunks
}

// stripFences removes a surrounding markdown code fence from a model
// reply, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
