package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateArticleURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "article", url: "https://en.wikipedia.org/wiki/Alan_Turing", wantErr: false},
		{name: "article with slash", url: "https://en.wikipedia.org/wiki/AC/DC", wantErr: false},
		{name: "article with fragment", url: "https://en.wikipedia.org/wiki/Go_(programming_language)#History", wantErr: false},
		{name: "empty", url: "", wantErr: true},
		{name: "http scheme", url: "http://en.wikipedia.org/wiki/Alan_Turing", wantErr: true},
		{name: "other language", url: "https://de.wikipedia.org/wiki/Alan_Turing", wantErr: true},
		{name: "mobile host", url: "https://en.m.wikipedia.org/wiki/Alan_Turing", wantErr: true},
		{name: "no article", url: "https://en.wikipedia.org/wiki/", wantErr: true},
		{name: "query only", url: "https://en.wikipedia.org/wiki/?title=x", wantErr: true},
		{name: "not wiki path", url: "https://en.wikipedia.org/w/index.php?title=Alan_Turing", wantErr: true},
		{name: "lookalike host", url: "https://en.wikipedia.org.evil.com/wiki/Alan_Turing", wantErr: true},
		{name: "at sign in title", url: "https://en.wikipedia.org/wiki/@evil", wantErr: false},
		{name: "whitespace", url: "https://en.wikipedia.org/wiki/Alan Turing", wantErr: true},
		{name: "other site", url: "https://example.com/wiki/Alan_Turing", wantErr: true},
		{name: "too long", url: WikipediaArticlePrefix + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArticleURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDifficulty_Valid(t *testing.T) {
	assert.True(t, DifficultyEasy.Valid())
	assert.True(t, DifficultyMedium.Valid())
	assert.True(t, DifficultyHard.Valid())
	assert.False(t, Difficulty("weird").Valid())
	assert.False(t, Difficulty("").Valid())
	assert.False(t, Difficulty("Easy").Valid())
}
