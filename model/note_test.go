package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoteWordCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty content counts zero", "", 0},
		{"whitespace only counts zero", "   \n\t ", 0},
		{"single word", "hello", 1},
		{"multiple words", "Discuss budget for Q3", 4},
		{"extra whitespace between words", "a  b\n c\t\td", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Note{Content: tt.content}
			assert.Equal(t, tt.want, n.WordCount())
		})
	}
}

func TestNoteMatches(t *testing.T) {
	n := Note{Title: "Budget Q3", Content: "spend", Summary: ""}

	assert.True(t, n.Matches("budget"), "title match is case-insensitive")
	assert.True(t, n.Matches("spend"), "content matches")
	assert.True(t, n.Matches("Q3"))
	assert.False(t, n.Matches("q4"))
	assert.True(t, n.Matches(""), "empty term matches everything")

	withSummary := Note{Title: "t", Content: "c", Summary: "Quarterly REVIEW"}
	assert.True(t, withSummary.Matches("review"), "summary matches case-insensitively")
}

func TestNoteHasSummary(t *testing.T) {
	assert.False(t, (&Note{}).HasSummary())
	assert.False(t, (&Note{Summary: "   "}).HasSummary())
	assert.True(t, (&Note{Summary: "short recap"}).HasSummary())
}
