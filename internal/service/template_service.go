package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/RaaSaaR-org/robot-management-system-sub004/internal/domain"
)

type TemplateCatalogService struct {
	templates TemplateRepository
}

func NewTemplateService(templates TemplateRepository) *TemplateCatalogService {
	return &TemplateCatalogService{templates: templates}
}

func (s *TemplateCatalogService) Create(ctx context.Context, req domain.CreateTemplateRequest) (*domain.NotificationTemplate, error) {
	tmpl := &domain.NotificationTemplate{
		ID:               uuid.New(),
		Name:             req.Name,
		Regulation:       req.Regulation,
		Authority:        req.Authority,
		NotificationType: req.NotificationType,
		Subject:          req.Subject,
		Body:             req.Body,
		IsDefault:        req.IsDefault,
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (s *TemplateCatalogService) Get(ctx context.Context, id uuid.UUID) (*domain.NotificationTemplate, error) {
	return s.templates.Get(ctx, id)
}

func (s *TemplateCatalogService) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	return s.templates.List(ctx)
}

func (s *TemplateCatalogService) Update(ctx context.Context, id uuid.UUID, req domain.UpdateTemplateRequest) (*domain.NotificationTemplate, error) {
	tmpl, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		tmpl.Name = *req.Name
	}
	if req.Subject != nil {
		tmpl.Subject = *req.Subject
	}
	if req.Body != nil {
		tmpl.Body = *req.Body
	}
	if req.IsDefault != nil {
		tmpl.IsDefault = *req.IsDefault
	}
	if err := s.templates.Update(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func (s *TemplateCatalogService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.templates.Delete(ctx, id)
}
