package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/storyshelf/internal/library"
)

func TestPageRecordRoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)

	published := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := PageRecord{
		Index: "stories",
		Page:  3,
		Stories: []*library.Story{
			{ID: "42", Author: "ann", Title: "tale-a", Published: &published, URL: "https://example.test/42", Views: 7},
		},
	}
	require.NoError(t, s.SavePage(rec))

	got, err := s.LoadPage("stories", 3)
	require.NoError(t, err)
	assert.Equal(t, rec.Index, got.Index)
	assert.Equal(t, rec.Page, got.Page)
	require.Len(t, got.Stories, 1)
	assert.Equal(t, "tale-a", got.Stories[0].Title)
	assert.Equal(t, 7, got.Stories[0].Views)
}

func TestLoadPageNotFound(t *testing.T) {
	s := New(t.TempDir(), nil)

	_, err := s.LoadPage("stories", 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadPagesOrdered(t *testing.T) {
	s := New(t.TempDir(), nil)

	for _, p := range []int{3, 1, 2} {
		require.NoError(t, s.SavePage(PageRecord{Index: "stories", Page: p}))
	}

	recs, err := s.LoadPages("stories")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.Page)
	}
}

func TestLoadPagesMissingIndex(t *testing.T) {
	s := New(t.TempDir(), nil)

	recs, err := s.LoadPages("nowhere")
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestProfileRoundTrip(t *testing.T) {
	s := New(t.TempDir(), nil)

	p := &library.Profile{
		Path:     "profiles/stories/42.yaml",
		Maturity: &library.Maturity{Restricted: false, Present: []string{"mild-peril"}},
		Difficulty: &library.Difficulty{
			EducationYears: 9,
			ReadingLevel:   "middle",
		},
		Topics: []*library.Topic{{ID: "seafaring"}},
	}
	require.NoError(t, s.SaveProfile(p))

	got, err := s.LoadProfile("profiles/stories/42.yaml")
	require.NoError(t, err)
	assert.Equal(t, p.Path, got.Path)
	require.NotNil(t, got.Difficulty)
	assert.Equal(t, 9.0, got.Difficulty.EducationYears)
	require.Len(t, got.Topics, 1)
	assert.Equal(t, "seafaring", got.Topics[0].ID)
}

func TestHistoryAppendAssignsSeq(t *testing.T) {
	s := New(t.TempDir(), nil)

	first, err := s.AppendHistory(HistoryEntry{Input: "t == 'topic' ^ q == 'seafaring'"})
	require.NoError(t, err)
	assert.Equal(t, 1, first.Seq)
	assert.False(t, first.Timestamp.IsZero())

	second, err := s.AppendHistory(HistoryEntry{
		Input:     "t == 'author' ^ q == 'ann'",
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Books:     []library.BookRef{{Index: "stories", Page: 1, StoryID: "42"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Seq)

	entries, err := s.History()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, first.Input, entries[0].Input)
	require.Len(t, entries[1].Books, 1)
	assert.Equal(t, "42", entries[1].Books[0].StoryID)

	got, err := s.HistoryEntryBySeq(2)
	require.NoError(t, err)
	assert.Equal(t, second.Input, got.Input)

	_, err = s.HistoryEntryBySeq(7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryEmptyStore(t *testing.T) {
	s := New(t.TempDir(), nil)

	entries, err := s.History()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
