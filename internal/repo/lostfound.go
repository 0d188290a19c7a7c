package repo

import (
	"context"
	"errors"
	"time"

	"quickqr/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLocked возвращается, когда детали QR уже зафиксированы permissions
// и повторное обновление запрещено.
var ErrLocked = errors.New("qr details are locked")

// DetailUpdate — полный набор деталей для однократного заполнения.
// Непустой Permissions блокирует запись навсегда.
type DetailUpdate struct {
	UserID          string
	FirstName       string
	LastName        string
	PhoneNumber     string
	Email           string
	Address         string
	AddressLocation string
	Description     string
	ItemType        string
	Permissions     map[string]string // field_name -> visible|hidden
}

// LostFoundRepository — доступ к QR-записям, маппингам, событиям и permissions.
// Переходы, затрагивающие несколько таблиц, выполняются в одной транзакции:
// любая ошибка откатывает все записи запроса.
type LostFoundRepository interface {
	// CreateQR создаёт QR-запись вместе с маппингом владельца.
	CreateQR(ctx context.Context, qr *model.QRRecord, owner *model.ScanMapping) error

	// GetQR возвращает запись или gorm.ErrRecordNotFound.
	GetQR(ctx context.Context, qrID string) (*model.QRRecord, error)

	// SaveQRURL сохраняет view URL после успешного рендеринга.
	SaveQRURL(ctx context.Context, qrID, url string) error

	// ListQRsByOwner возвращает активные QR пользователя.
	ListQRsByOwner(ctx context.Context, userID string) ([]model.QRRecord, error)

	// GetMapping возвращает маппинг пары (qr, user) или gorm.ErrRecordNotFound.
	GetMapping(ctx context.Context, qrID, userID string) (*model.ScanMapping, error)

	// GetPermissions возвращает все permission-строки для qr_id.
	GetPermissions(ctx context.Context, qrID string) ([]model.FieldPermission, error)

	// RecordScan пишет событие скана и, если mapping не nil, лениво создаёт
	// маппинг (существующий не трогается).
	RecordScan(ctx context.Context, event *model.ScanEvent, mapping *model.ScanMapping) error

	// UpdateDetails заполняет детали, апсертит маппинг, пишет permissions
	// (фиксируя запись) и событие update. Возвращает ErrLocked, если запись
	// уже зафиксирована, в том числе при гонке двух конкурентных заполнений.
	UpdateDetails(ctx context.Context, qrID string, upd DetailUpdate, event *model.ScanEvent) error

	// MarkFound помечает предмет найденным (last-write-wins) и пишет событие found.
	MarkFound(ctx context.Context, qrID, userID, location string, date time.Time, event *model.ScanEvent) error
}

type lostFoundRepo struct {
	db *gorm.DB
}

// NewLostFoundRepository создаёт реализацию репозитория lost-and-found.
func NewLostFoundRepository(db *gorm.DB) LostFoundRepository {
	return &lostFoundRepo{db: db}
}

func (r *lostFoundRepo) CreateQR(ctx context.Context, qr *model.QRRecord, owner *model.ScanMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(qr).Error; err != nil {
			return err
		}
		if owner != nil {
			if err := tx.Create(owner).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *lostFoundRepo) GetQR(ctx context.Context, qrID string) (*model.QRRecord, error) {
	var qr model.QRRecord
	if err := r.db.WithContext(ctx).First(&qr, "qr_id = ?", qrID).Error; err != nil {
		return nil, err
	}
	return &qr, nil
}

func (r *lostFoundRepo) SaveQRURL(ctx context.Context, qrID, url string) error {
	return r.db.WithContext(ctx).
		Model(&model.QRRecord{}).
		Where("qr_id = ?", qrID).
		Update("qr_url", url).Error
}

func (r *lostFoundRepo) ListQRsByOwner(ctx context.Context, userID string) ([]model.QRRecord, error) {
	var qrs []model.QRRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active_status = ?", userID, true).
		Order("create_date DESC").
		Find(&qrs).Error
	return qrs, err
}

func (r *lostFoundRepo) GetMapping(ctx context.Context, qrID, userID string) (*model.ScanMapping, error) {
	var m model.ScanMapping
	if err := r.db.WithContext(ctx).First(&m, "qrid = ? AND userid = ?", qrID, userID).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *lostFoundRepo) GetPermissions(ctx context.Context, qrID string) ([]model.FieldPermission, error) {
	var perms []model.FieldPermission
	err := r.db.WithContext(ctx).Where("qr_id = ?", qrID).Find(&perms).Error
	return perms, err
}

func (r *lostFoundRepo) RecordScan(ctx context.Context, event *model.ScanEvent, mapping *model.ScanMapping) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}
		if mapping != nil {
			// Ленивая вставка: для существующей пары (qr, user) ничего не меняем.
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "qrid"}, {Name: "userid"}},
				DoNothing: true,
			}).Create(mapping).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *lostFoundRepo) UpdateDetails(ctx context.Context, qrID string, upd DetailUpdate, event *model.ScanEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qr model.QRRecord
		if err := tx.First(&qr, "qr_id = ?", qrID).Error; err != nil {
			return err
		}

		var permCount int64
		if err := tx.Model(&model.FieldPermission{}).Where("qr_id = ?", qrID).Count(&permCount).Error; err != nil {
			return err
		}
		if permCount > 0 || qr.DetailsLocked {
			return ErrLocked
		}

		if err := tx.Model(&model.QRRecord{}).Where("qr_id = ?", qrID).Updates(map[string]any{
			"first_name":         upd.FirstName,
			"last_name":          upd.LastName,
			"phone_number":       upd.PhoneNumber,
			"email":              upd.Email,
			"address":            upd.Address,
			"address_location":   upd.AddressLocation,
			"description":        upd.Description,
			"item_type":          upd.ItemType,
			"last_modified_date": time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		if upd.UserID != "" {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "qrid"}, {Name: "userid"}},
				DoUpdates: clause.Assignments(map[string]any{
					"details_updated": true,
					"is_first_scan":   false,
				}),
			}).Create(&model.ScanMapping{
				QRID:           qrID,
				UserID:         upd.UserID,
				IsFirstScan:    false,
				DetailsUpdated: true,
			}).Error; err != nil {
				return err
			}
		}

		if len(upd.Permissions) > 0 {
			// Атомарное решение "свободно -> занято": guarded UPDATE вместо
			// check-then-insert, иначе два конкурентных заполнения могли бы
			// оба посчитать запись незаблокированной.
			res := tx.Model(&model.QRRecord{}).
				Where("qr_id = ? AND details_locked = ?", qrID, false).
				Update("details_locked", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrLocked
			}
			for field, perm := range upd.Permissions {
				if err := tx.Create(&model.FieldPermission{
					QRID:       qrID,
					FieldName:  field,
					Permission: perm,
				}).Error; err != nil {
					return err
				}
			}
		}

		return tx.Create(event).Error
	})
}

func (r *lostFoundRepo) MarkFound(ctx context.Context, qrID, userID, location string, date time.Time, event *model.ScanEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var qr model.QRRecord
		if err := tx.First(&qr, "qr_id = ?", qrID).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.QRRecord{}).Where("qr_id = ?", qrID).Updates(map[string]any{
			"is_found":           true,
			"found_date":         date,
			"found_location":     location,
			"found_by_user_id":   userID,
			"last_modified_date": time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		return tx.Create(event).Error
	})
}
