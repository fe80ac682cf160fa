package score

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

type stubModel struct {
	replies []string
	prompts []string
}

func (m *stubModel) GenerateWithSystem(_ context.Context, _, userPrompt string) (string, error) {
	m.prompts = append(m.prompts, userPrompt)
	reply := m.replies[0]
	if len(m.replies) > 1 {
		m.replies = m.replies[1:]
	}
	return reply, nil
}

const replyA = `{
  "maturity": {"restricted": false, "present": ["mild-peril"], "absent": ["gore"], "examples": []},
  "difficulty": {"education_years": 7, "reading_level": "elementary", "words": ["brigantine"], "phrases": []},
  "topics": [{"id": "seafaring", "examples": ["the brigantine sailed"]}],
  "ideologies": [{"id": "stoicism", "presence": 0.3, "examples": []}]
}`

const replyB = `{
  "maturity": {"restricted": true, "present": ["violence"], "absent": [], "examples": []},
  "difficulty": {"education_years": 9, "reading_level": "middle", "words": ["brigantine", "mizzen"], "phrases": []},
  "topics": [{"id": "seafaring", "examples": ["storm at sea"]}, {"id": "mutiny", "examples": []}],
  "ideologies": [{"id": "stoicism", "presence": 0.6, "examples": []}]
}`

func TestScoreSingleChunk(t *testing.T) {
	model := &stubModel{replies: []string{replyA}}
	scorer := NewScorer(model, 4000, nil)

	story := &library.Story{ID: "42", Author: "ann", Title: "tale-a"}
	profile, err := scorer.Score(context.Background(), story, "the brigantine sailed at dawn")
	require.NoError(t, err)

	require.NotNil(t, profile.Maturity)
	assert.False(t, profile.Maturity.Restricted)
	assert.Equal(t, []string{"mild-peril"}, profile.Maturity.Present)

	require.NotNil(t, profile.Difficulty)
	assert.Equal(t, 7.0, profile.Difficulty.EducationYears)
	assert.Equal(t, "elementary", profile.Difficulty.ReadingLevel)

	require.Len(t, profile.Topics, 1)
	assert.Equal(t, "seafaring", profile.Topics[0].ID)

	require.Len(t, profile.Ideologies, 1)
	assert.Equal(t, 0.3, profile.Ideologies[0].Presence)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], `"tale-a" by ann`)
}

func TestScoreMergesChunks(t *testing.T) {
	model := &stubModel{replies: []string{replyA, replyB}}
	scorer := NewScorer(model, 30, nil)

	text := strings.Repeat("the brigantine sailed onward ", 2)
	profile, err := scorer.Score(context.Background(), &library.Story{ID: "42"}, text)
	require.NoError(t, err)
	require.Len(t, model.prompts, 2, "short chunk size forces two chunks")

	assert.True(t, profile.Maturity.Restricted, "restricted ORs across chunks")
	assert.ElementsMatch(t, []string{"mild-peril", "violence"}, profile.Maturity.Present)

	assert.Equal(t, 9.0, profile.Difficulty.EducationYears, "max wins")
	assert.Equal(t, "middle", profile.Difficulty.ReadingLevel, "level follows the max years")
	assert.ElementsMatch(t, []string{"brigantine", "mizzen"}, profile.Difficulty.Words)

	require.Len(t, profile.Topics, 2)
	seafaring := profile.Topics[0]
	assert.Equal(t, "seafaring", seafaring.ID)
	assert.Len(t, seafaring.Examples, 2, "examples union per topic")

	require.Len(t, profile.Ideologies, 1)
	assert.Equal(t, 0.6, profile.Ideologies[0].Presence, "max presence wins")
}

func TestScoreStripsCodeFence(t *testing.T) {
	model := &stubModel{replies: []string{"```json\n" + replyA + "\n```"}}
	scorer := NewScorer(model, 4000, nil)

	profile, err := scorer.Score(context.Background(), &library.Story{ID: "42"}, "text")
	require.NoError(t, err)
	require.Len(t, profile.Topics, 1)
}

func TestScoreRejectsBadJSON(t *testing.T) {
	model := &stubModel{replies: []string{"sorry, I cannot"}}
	scorer := NewScorer(model, 4000, nil)

	_, err := scorer.Score(context.Background(), &library.Story{ID: "42"}, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse score reply")
}

func TestScoreEmptyText(t *testing.T) {
	scorer := NewScorer(&stubModel{replies: []string{replyA}}, 4000, nil)

	_, err := scorer.Score(context.Background(), &library.Story{ID: "42"}, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no text to score")
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks("aa bb cc dd", 5)
	assert.Equal(t, []string{"aa bb", "cc dd"}, chunks)

	assert.Nil(t, splitChunks("", 5))

	long := splitChunks("supercalifragilistic", 5)
	assert.Equal(t, []string{"supercalifragilistic"}, long, "a single oversized word stays whole")
}
