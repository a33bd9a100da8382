package idea

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"innovative-sphere-api/internal/domain/entity"
	apperrors "innovative-sphere-api/pkg/errors"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) IsActive(ctx context.Context, kind entity.CatalogKind, value string) (bool, error) {
	args := m.Called(ctx, kind, value)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("CST", 8*3600))

func newTestService(completer Completer, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(NewComposer(seeded(1)), completer, opts...)
}

func TestGenerate_HealthcareScenario(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return regexp.MustCompile(`User Interests: machine learning\n`).MatchString(prompt)
	})).Return(wellFormed, nil).Once()

	svc := newTestService(completer)
	got, err := svc.Generate(context.Background(), GenerationRequest{
		Industry:      "healthcare",
		ProjectType:   "web-application",
		UserInterests: []string{"machine learning"},
		Complexity:    entity.ComplexityIntermediate,
	})
	require.NoError(t, err)
	completer.AssertExpectations(t)

	assert.Equal(t, "X", got.Title)
	assert.Equal(t, "Y", got.Description)
	assert.Equal(t, "healthcare", got.Industry)
	assert.Equal(t, "web-application", got.ProjectType)
	assert.Equal(t, entity.ComplexityIntermediate, got.Complexity)
	assert.Equal(t, []string{"React"}, got.Technologies)
	assert.Equal(t, "3 months", got.EstimatedDuration)
	assert.Equal(t, fixedNow.UTC(), got.GeneratedAt)
	assert.Regexp(t, fmt.Sprintf(`^idea_%d_[0-9a-f]{9}$`, fixedNow.UnixMilli()), got.ID)
}

func TestGenerate_DefaultsComplexityAndTrims(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return regexp.MustCompile(`Complexity Level: intermediate\n`).MatchString(prompt) &&
			regexp.MustCompile(`User Interests: N/A\n`).MatchString(prompt)
	})).Return(wellFormed, nil)

	got, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
		Industry:      "  finance ",
		ProjectType:   " data-science",
		UserInterests: []string{"   "},
	})
	require.NoError(t, err)
	assert.Equal(t, "finance", got.Industry)
	assert.Equal(t, "data-science", got.ProjectType)
	assert.Equal(t, entity.ComplexityIntermediate, got.Complexity)
}

func TestGenerate_ValidationErrors(t *testing.T) {
	tooMany := make([]string, 11)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("interest-%d", i)
	}

	tenAndBlank := make([]string, 0, 11)
	for i := 0; i < 10; i++ {
		tenAndBlank = append(tenAndBlank, string(rune('a'+i)))
	}
	tenAndBlank = append(tenAndBlank, "  ")

	cases := []struct {
		name    string
		req     GenerationRequest
		message string
	}{
		{"blank industry", GenerationRequest{Industry: "  ", ProjectType: "web-application"}, "industry is required"},
		{"missing project type", GenerationRequest{Industry: "healthcare"}, "projectType is required"},
		{"too many interests", GenerationRequest{Industry: "healthcare", ProjectType: "iot-project", UserInterests: tooMany}, "userInterests must contain at most 10 items"},
		{"blank entry counts toward limit", GenerationRequest{Industry: "healthcare", ProjectType: "iot-project", UserInterests: tenAndBlank}, "userInterests must contain at most 10 items"},
		{"bad complexity", GenerationRequest{Industry: "healthcare", ProjectType: "iot-project", Complexity: "expert"}, "complexity must be one of: beginner, intermediate, advanced"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			completer := &mockCompleter{}
			_, err := newTestService(completer).Generate(context.Background(), tc.req)

			appErr := apperrors.AsAppError(err)
			assert.Equal(t, apperrors.CodeInvalidParam, appErr.Code)
			assert.Equal(t, tc.message, appErr.Message)
			completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
		})
	}
}

func TestGenerate_TenInterestsAccepted(t *testing.T) {
	interests := make([]string, 10)
	for i := range interests {
		interests[i] = fmt.Sprintf("interest-%d", i)
	}
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return(wellFormed, nil)

	_, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
		Industry: "education", ProjectType: "mobile-application", UserInterests: interests,
	})
	assert.NoError(t, err)
}

func TestGenerate_PropagatesClassifiedErrors(t *testing.T) {
	for _, code := range []apperrors.ErrorCode{
		apperrors.CodeUpstreamRateLimited,
		apperrors.CodeUpstreamUnauthorized,
		apperrors.CodeUpstreamTimeout,
		apperrors.CodeUpstreamMalformed,
	} {
		completer := &mockCompleter{}
		upstream := apperrors.New(code, "upstream failure")
		completer.On("Complete", mock.Anything, mock.Anything).Return("", upstream)

		_, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
			Industry: "healthcare", ProjectType: "web-application",
		})
		assert.Same(t, upstream, apperrors.AsAppError(err))
	}
}

func TestGenerate_WrapsUnclassifiedErrors(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("connection reset by peer"))

	_, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
		Industry: "healthcare", ProjectType: "web-application",
	})
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeGenerationFailed, appErr.Code)
	assert.Equal(t, "connection reset by peer", appErr.Message)
}

func TestGenerate_ParseErrorIsReturned(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("sorry, no idea", nil)

	_, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
		Industry: "healthcare", ProjectType: "web-application",
	})
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, apperrors.CodeIdeaParseFailed, apperrors.CodeOf(err))
}

func TestGenerate_CatalogValidation(t *testing.T) {
	catalog := &mockCatalog{}
	catalog.On("IsActive", mock.Anything, entity.CatalogIndustry, "healthcare").Return(true, nil)
	catalog.On("IsActive", mock.Anything, entity.CatalogProjectType, "spaceship").Return(false, nil)

	completer := &mockCompleter{}
	_, err := newTestService(completer, WithCatalogChecker(catalog)).Generate(context.Background(), GenerationRequest{
		Industry: "healthcare", ProjectType: "spaceship",
	})

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, apperrors.CodeInvalidParam, appErr.Code)
	assert.Equal(t, "projectType must be a valid project type", appErr.Message)
	catalog.AssertExpectations(t)
	completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestGenerate_CatalogLookupFailure(t *testing.T) {
	dbErr := apperrors.Wrap(errors.New("conn refused"), apperrors.CodeDatabaseError, "failed to check industry")
	catalog := &mockCatalog{}
	catalog.On("IsActive", mock.Anything, entity.CatalogIndustry, "healthcare").Return(false, dbErr)

	_, err := newTestService(&mockCompleter{}, WithCatalogChecker(catalog)).Generate(context.Background(), GenerationRequest{
		Industry: "healthcare", ProjectType: "web-application",
	})
	assert.Equal(t, apperrors.CodeDatabaseError, apperrors.CodeOf(err))
}

func TestGenerate_OutputRespectsBounds(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return(
		`{"title":"A very long title that keeps going and going and going and going and going and going and going and going and going","description":"Y","technologies":["a","b","c","d","e","f","g","h","i","j","k","l"],"challenges":["1","2","3","4","5","6","7","8","9"]}`, nil)

	got, err := newTestService(completer).Generate(context.Background(), GenerationRequest{
		Industry: "technology", ProjectType: "blockchain",
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(got.Title)), 100)
	assert.Len(t, got.Technologies, 10)
	assert.Len(t, got.Challenges, 8)
	assert.Empty(t, got.Features)
}

func TestNewIdeaID_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewIdeaID(fixedNow)
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
