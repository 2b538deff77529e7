package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/internship-recommender/internal/domain"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases and splits punctuation", "Python, SQL & Excel!", []string{"python", "sql", "excel"}},
		{"keeps duplicates for term frequency", "go go GO", []string{"go", "go", "go"}},
		{"folds accents", "Bengalūru Café", []string{"bengaluru", "cafe"}},
		{"splits hyphenated", "Machine-Learning", []string{"machine", "learning"}},
		{"keeps digits", "Node.js 18", []string{"node", "js", "18"}},
		{"empty", "  \t ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Set(t *testing.T) {
	s := Normalize("Data data SCIENCE")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has("data"))
	assert.True(t, s.Has("science"))
	assert.False(t, s.Has("Data"))
}

func TestSkillKey(t *testing.T) {
	assert.Equal(t, "machine learning", SkillKey(" Machine-Learning "))
	assert.Equal(t, SkillKey("machine learning"), SkillKey("MACHINE   learning"))
	assert.Equal(t, "", SkillKey("--"))
}

func TestParseSkillList(t *testing.T) {
	got := ParseSkillList("Python, sql ; Excel\npython | ,, SQL")
	assert.Equal(t, []string{"Python", "sql", "Excel"}, got)
	assert.Empty(t, ParseSkillList(" , ; "))
}

func TestBuildQueryDocument(t *testing.T) {
	p := domain.CandidateProfile{
		Skills:         []string{"Python", "SQL"},
		SectorInterest: "Technology",
		Aspirations:    "data engineering",
	}
	doc, err := BuildQueryDocument(p)
	require.NoError(t, err)
	assert.Equal(t, "Python SQL data engineering Technology", doc)

	p.Aspirations = ""
	doc, err = BuildQueryDocument(p)
	require.NoError(t, err)
	assert.Equal(t, "Python SQL Technology", doc)
}

func TestBuildQueryDocument_NoUsableSkills(t *testing.T) {
	_, err := BuildQueryDocument(domain.CandidateProfile{Skills: []string{"!!", "--"}, SectorInterest: "Tech"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "skills")
}
