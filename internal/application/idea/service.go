package idea

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"innovative-sphere-api/internal/domain/entity"
	apperrors "innovative-sphere-api/pkg/errors"
	"innovative-sphere-api/pkg/logger"
	"innovative-sphere-api/pkg/metrics"
	"innovative-sphere-api/pkg/tracer"
)

// MaxUserInterests 单次请求允许的兴趣数量上限
const MaxUserInterests = 10

// Completer 文本补全接口
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CatalogChecker 校验 industry/projectType 是否为启用的目录条目
type CatalogChecker interface {
	IsActive(ctx context.Context, kind entity.CatalogKind, slugOrName string) (bool, error)
}

// GenerationRequest 创意生成请求
type GenerationRequest struct {
	Industry      string            `validate:"required,max=100"`
	ProjectType   string            `validate:"required,max=100"`
	UserInterests []string          `validate:"max=10,dive,max=200"`
	Complexity    entity.Complexity `validate:"omitempty,oneof=beginner intermediate advanced"`
}

// normalize 去除首尾空白，兴趣项数量保持不变以便按原始条数校验
func (r GenerationRequest) normalize() GenerationRequest {
	out := GenerationRequest{
		Industry:    strings.TrimSpace(r.Industry),
		ProjectType: strings.TrimSpace(r.ProjectType),
		Complexity:  entity.Complexity(strings.ToLower(strings.TrimSpace(string(r.Complexity)))),
	}
	if len(r.UserInterests) > 0 {
		out.UserInterests = make([]string, len(r.UserInterests))
		for i, s := range r.UserInterests {
			out.UserInterests[i] = strings.TrimSpace(s)
		}
	}
	return out
}

// dropBlankInterests 丢弃空白兴趣项，在校验通过后调用
func dropBlankInterests(interests []string) []string {
	if len(interests) == 0 {
		return interests
	}
	out := make([]string, 0, len(interests))
	for _, s := range interests {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Service 创意生成服务：校验 -> 组装提示词 -> 调用模型 -> 解析 -> 组装结果
type Service struct {
	composer  *Composer
	completer Completer
	catalog   CatalogChecker
	validate  *validator.Validate
	now       func() time.Time
}

// Option 服务配置项
type Option func(*Service)

// WithCatalogChecker 启用目录校验
func WithCatalogChecker(checker CatalogChecker) Option {
	return func(s *Service) { s.catalog = checker }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService 创建创意生成服务
func NewService(composer *Composer, completer Completer, opts ...Option) *Service {
	s := &Service{
		composer:  composer,
		completer: completer,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate 生成一个项目创意
func (s *Service) Generate(ctx context.Context, req GenerationRequest) (*entity.Idea, error) {
	ctx, span := tracer.Start(ctx, "idea.Service.Generate")
	defer span.End()

	start := time.Now()
	req = req.normalize()
	if err := s.validateRequest(ctx, req); err != nil {
		tracer.RecordError(span, err)
		metrics.IdeaGenerationTotal.WithLabelValues("invalid", string(apperrors.CodeOf(err))).Inc()
		return nil, err
	}
	req.UserInterests = dropBlankInterests(req.UserInterests)
	if req.Complexity == "" {
		req.Complexity = entity.DefaultComplexity
	}

	span.SetAttributes(
		attribute.String("idea.industry", req.Industry),
		attribute.String("idea.project_type", req.ProjectType),
		attribute.String("idea.complexity", string(req.Complexity)),
		attribute.Int("idea.interests", len(req.UserInterests)),
	)

	idea, err := s.generate(ctx, req)
	metrics.IdeaGenerationDuration.WithLabelValues(string(req.Complexity)).Observe(time.Since(start).Seconds())
	if err != nil {
		tracer.RecordError(span, err)
		metrics.IdeaGenerationTotal.WithLabelValues(string(req.Complexity), string(apperrors.CodeOf(err))).Inc()
		logger.Error(ctx, "idea generation failed", err,
			"industry", req.Industry,
			"project_type", req.ProjectType,
			"code", string(apperrors.CodeOf(err)),
		)
		return nil, err
	}

	metrics.IdeaGenerationTotal.WithLabelValues(string(req.Complexity), "success").Inc()
	span.SetAttributes(attribute.String("idea.id", idea.ID))
	logger.Info(ctx, "idea generated",
		"idea_id", idea.ID,
		"industry", idea.Industry,
		"project_type", idea.ProjectType,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return idea, nil
}

func (s *Service) generate(ctx context.Context, req GenerationRequest) (*entity.Idea, error) {
	prompt, directives := s.composer.Compose(req.Industry, req.ProjectType, req.UserInterests, req.Complexity)
	logger.Debug(ctx, "idea prompt composed", "directives", directives)

	raw, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, classify(err)
	}

	content, err := ParseIdea(raw)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			metrics.IdeaParseFailures.WithLabelValues(pe.Reason).Inc()
		}
		logger.Warn(ctx, "model reply could not be parsed", "error", err.Error(), "reply_length", len(raw))
		return nil, err
	}

	now := s.now().UTC()
	return &entity.Idea{
		IdeaContent: *content,
		ID:          NewIdeaID(now),
		Industry:    req.Industry,
		ProjectType: req.ProjectType,
		Complexity:  req.Complexity,
		GeneratedAt: now,
	}, nil
}

// validateRequest 校验请求结构，并在启用时校验目录
func (s *Service) validateRequest(ctx context.Context, req GenerationRequest) error {
	if err := s.validate.StructCtx(ctx, req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return apperrors.New(apperrors.CodeInvalidParam, validationMessage(verrs[0]))
		}
		return apperrors.Wrap(err, apperrors.CodeInvalidParam, "invalid idea request")
	}

	if s.catalog == nil {
		return nil
	}
	checks := []struct {
		kind  entity.CatalogKind
		value string
	}{
		{entity.CatalogIndustry, req.Industry},
		{entity.CatalogProjectType, req.ProjectType},
	}
	for _, c := range checks {
		ok, err := s.catalog.IsActive(ctx, c.kind, c.value)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.Newf(apperrors.CodeInvalidParam, "%s must be a valid %s", fieldName(c.kind), c.kind.Label())
		}
	}
	return nil
}

func fieldName(kind entity.CatalogKind) string {
	if kind == entity.CatalogProjectType {
		return "projectType"
	}
	return "industry"
}

func validationMessage(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Industry":
		if fe.Tag() == "required" {
			return "industry is required"
		}
		return "industry must be at most 100 characters"
	case "ProjectType":
		if fe.Tag() == "required" {
			return "projectType is required"
		}
		return "projectType must be at most 100 characters"
	case "UserInterests":
		return fmt.Sprintf("userInterests must contain at most %d items", MaxUserInterests)
	case "Complexity":
		return "complexity must be one of: beginner, intermediate, advanced"
	}
	if strings.HasPrefix(fe.Namespace(), "GenerationRequest.UserInterests[") {
		return "each user interest must be at most 200 characters"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// classify 已分类错误原样返回，其余包装为生成错误并保留原始信息
func classify(err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	return apperrors.New(apperrors.CodeGenerationFailed, err.Error())
}

// NewIdeaID 生成形如 idea_<unix毫秒>_<9位随机字符> 的 ID
func NewIdeaID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("idea_%d_%s", at.UnixMilli(), suffix)
}
