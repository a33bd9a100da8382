package idea

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "innovative-sphere-api/pkg/errors"
)

const wellFormed = `{"title":"X","description":"Y","technologies":["React"],"features":[],"objectives":[],"challenges":[],"estimatedDuration":"3 months"}`

func TestParseIdea_StrictJSON(t *testing.T) {
	got, err := ParseIdea("  " + wellFormed + "\n")
	require.NoError(t, err)

	assert.Equal(t, "X", got.Title)
	assert.Equal(t, "Y", got.Description)
	assert.Equal(t, []string{"React"}, got.Technologies)
	assert.Empty(t, got.Features)
	assert.Equal(t, "3 months", got.EstimatedDuration)
}

func TestParseIdea_ExtractsObjectFromProse(t *testing.T) {
	raw := "Sure! Here is a fresh idea:\n```json\n" +
		`{"title":"CareLoop","description":"Peer support for caregivers","technologies":["Go","Postgres"],"features":["matching"],"objectives":["learn"],"challenges":["privacy"],"estimatedDuration":"4-6 months","extra":{"ignored":true}}` +
		"\n```\nLet me know if you want another."

	got, err := ParseIdea(raw)
	require.NoError(t, err)

	assert.Equal(t, "CareLoop", got.Title)
	assert.Equal(t, "Peer support for caregivers", got.Description)
	assert.Equal(t, []string{"Go", "Postgres"}, got.Technologies)
	assert.Equal(t, []string{"matching"}, got.Features)
	assert.Equal(t, []string{"learn"}, got.Objectives)
	assert.Equal(t, []string{"privacy"}, got.Challenges)
	assert.Equal(t, "4-6 months", got.EstimatedDuration)
}

func TestParseIdea_NoBraces(t *testing.T) {
	_, err := ParseIdea("I could not come up with anything today.")
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, parseReasonNoJSON, pe.Reason)
	assert.Equal(t, "no JSON found", pe.Message)
	assert.Equal(t, apperrors.CodeIdeaParseFailed, apperrors.CodeOf(err))
}

func TestParseIdea_ClosingBraceBeforeOpening(t *testing.T) {
	_, err := ParseIdea("} nothing useful {")
	assert.Equal(t, apperrors.CodeIdeaParseFailed, apperrors.CodeOf(err))
}

func TestParseIdea_SyntaxErrorIsWrapped(t *testing.T) {
	_, err := ParseIdea(`prefix {"title": "X", "description": } suffix`)
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, parseReasonInvalidJSON, pe.Reason)
	assert.NotNil(t, pe.Err)
}

func TestParseIdea_MissingRequiredFields(t *testing.T) {
	cases := map[string]string{
		"missing title":       `{"description":"Y"}`,
		"empty title":         `{"title":"","description":"Y"}`,
		"null description":    `{"title":"X","description":null}`,
		"false description":   `{"title":"X","description":false}`,
		"missing description": `Here: {"title":"X"}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseIdea(raw)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, "invalid format", pe.Message)
		})
	}
}

func TestParseIdea_NonArrayFieldsBecomeEmpty(t *testing.T) {
	got, err := ParseIdea(`{"title":"X","description":"Y","technologies":"React, Node","features":{"a":1},"objectives":null}`)
	require.NoError(t, err)

	assert.NotNil(t, got.Technologies)
	assert.Empty(t, got.Technologies)
	assert.Empty(t, got.Features)
	assert.Empty(t, got.Objectives)
	assert.Empty(t, got.Challenges)
	assert.Equal(t, "", got.EstimatedDuration)
}

func TestParseIdea_TruncatesToBounds(t *testing.T) {
	items := func(n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = `"item"`
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	title := strings.Repeat("é", 150)
	raw := `{"title":"` + title + `","description":"Y","technologies":` + items(20) +
		`,"features":` + items(20) + `,"objectives":` + items(20) + `,"challenges":` + items(20) + `}`

	got, err := ParseIdea(raw)
	require.NoError(t, err)

	assert.Equal(t, 100, len([]rune(got.Title)))
	assert.Len(t, got.Technologies, 10)
	assert.Len(t, got.Features, 15)
	assert.Len(t, got.Objectives, 10)
	assert.Len(t, got.Challenges, 8)
}

func TestParseIdea_CoercesNonStringItems(t *testing.T) {
	got, err := ParseIdea(`{"title":2024,"description":"Y","technologies":["Go",3.5,true,null,{"name":"Redis"}],"estimatedDuration":6}`)
	require.NoError(t, err)

	assert.Equal(t, "2024", got.Title)
	assert.Equal(t, []string{"Go", "3.5", "true", `{"name":"Redis"}`}, got.Technologies)
	assert.Equal(t, "6", got.EstimatedDuration)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
