package repo

import (
	"context"

	"quickqr/internal/model"

	"gorm.io/gorm"
)

// DesignRepository — сохранённые дизайны QR и журнал их сканов.
type DesignRepository interface {
	CreateDesign(ctx context.Context, d *model.QRDesign) error

	// GetDesign возвращает дизайн или gorm.ErrRecordNotFound.
	GetDesign(ctx context.Context, id string) (*model.QRDesign, error)

	// ListDesignsByUser возвращает дизайны пользователя, новые первыми.
	ListDesignsByUser(ctx context.Context, userID string) ([]model.QRDesign, error)

	// RecordUsage пишет append-only отчёт о скане.
	RecordUsage(ctx context.Context, u *model.QRUsage) error

	// ListUsage возвращает отчёты сканов дизайна, новые первыми.
	ListUsage(ctx context.Context, designID string) ([]model.QRUsage, error)
}

type designRepo struct {
	db *gorm.DB
}

// NewDesignRepository создаёт реализацию репозитория дизайнов.
func NewDesignRepository(db *gorm.DB) DesignRepository {
	return &designRepo{db: db}
}

func (r *designRepo) CreateDesign(ctx context.Context, d *model.QRDesign) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *designRepo) GetDesign(ctx context.Context, id string) (*model.QRDesign, error) {
	var d model.QRDesign
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *designRepo) ListDesignsByUser(ctx context.Context, userID string) ([]model.QRDesign, error) {
	var designs []model.QRDesign
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&designs).Error
	return designs, err
}

func (r *designRepo) RecordUsage(ctx context.Context, u *model.QRUsage) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *designRepo) ListUsage(ctx context.Context, designID string) ([]model.QRUsage, error) {
	var usage []model.QRUsage
	err := r.db.WithContext(ctx).
		Where("qr_design_id = ?", designID).
		Order("created_at DESC").
		Find(&usage).Error
	return usage, err
}
