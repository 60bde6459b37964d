package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/config"
	appErrors "github.com/noah-isme/school-admin-api/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, int, error)
	FindByID(ctx context.Context, id int64) (*models.SubjectDetail, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

type listCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type cacheMetrics interface {
	RecordCacheOperation(hit bool)
}

// SubjectRequest holds the payload for creating or overwriting a subject.
type SubjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Credits     int    `json:"credits" validate:"gte=0"`
	TotalHours  int    `json:"total_hours" validate:"gte=0"`
}

type cachedSubjectList struct {
	Subjects []models.SubjectDetail `json:"subjects"`
	Total    int                    `json:"total"`
}

const subjectCachePrefix = "subjects"

// SubjectService handles subject use-cases. Unfiltered list reads are
// cached; any mutation invalidates the whole prefix.
type SubjectService struct {
	repo      subjectRepository
	cache     listCache
	cacheCfg  config.CacheConfig
	metrics   cacheMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service. The cache and
// metrics may be nil.
func NewSubjectService(repo subjectRepository, cache listCache, cacheCfg config.CacheConfig, metrics cacheMetrics, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, cacheCfg: cacheCfg, metrics: metrics, validator: validate, logger: logger}
}

// List returns subjects with their teacher-name projections.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.SubjectDetail, *models.Pagination, error) {
	key := s.cacheKey(filter)
	if key != "" {
		var cached cachedSubjectList
		err := s.cache.Get(ctx, key, &cached)
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil)
		}
		if err == nil {
			return cached.Subjects, paginationFor(filter.Page, filter.PageSize, cached.Total), nil
		}
	}

	subjects, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, cachedSubjectList{Subjects: subjects, Total: total}, s.cacheCfg.TTL); err != nil {
			s.logger.Warn("failed to cache subject list", zap.String("key", key), zap.Error(err))
		}
	}
	return subjects, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a single subject with its teacher-name projection.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.SubjectDetail, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return subject, nil
}

// Create registers a new subject.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{
		Name:        req.Name,
		Description: req.Description,
		Credits:     req.Credits,
		TotalHours:  req.TotalHours,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	s.invalidate(ctx)
	return subject, nil
}

// Update overwrites an existing subject.
func (s *SubjectService) Update(ctx context.Context, id int64, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}

	subject := detail.Subject
	subject.Name = req.Name
	subject.Description = req.Description
	subject.Credits = req.Credits
	subject.TotalHours = req.TotalHours

	if err := s.repo.Update(ctx, &subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update subject")
	}
	s.invalidate(ctx)
	return &subject, nil
}

// Delete removes a subject after checking it exists.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete subject")
	}
	s.invalidate(ctx)
	return nil
}

func (s *SubjectService) cacheKey(filter models.SubjectFilter) string {
	if s.cache == nil || !s.cacheCfg.Enabled || filter.Search != "" {
		return ""
	}
	return fmt.Sprintf("%s:list:%d:%d:%s:%s", subjectCachePrefix, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)
}

func (s *SubjectService) invalidate(ctx context.Context) {
	if s.cache == nil || !s.cacheCfg.Enabled {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, subjectCachePrefix+":*"); err != nil {
		s.logger.Warn("failed to invalidate subject cache", zap.Error(err))
	}
}
