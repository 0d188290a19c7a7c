package service

import (
	"context"
	"strings"

	"quickqr/internal/model"
	"quickqr/internal/repo"
)

// Permissions — permission-строки одного QR. Существование хотя бы одной
// строки фиксирует запись: сама вставка (и её атомарность) принадлежит
// транзакции update-details.
type Permissions []model.FieldPermission

// Locked — зафиксирована ли запись.
func (p Permissions) Locked() bool {
	return len(p) > 0
}

// Filter применяет permissions к полному набору деталей.
// Без permission-строк возвращается всё; иначе только поля со значением
// visible (без учёта регистра), отсутствующие в наборе считаются скрытыми.
func (p Permissions) Filter(full map[string]any) map[string]any {
	if len(p) == 0 {
		return full
	}

	visible := make(map[string]bool, len(p))
	for _, fp := range p {
		if strings.EqualFold(fp.Permission, model.PermissionVisible) {
			visible[fp.FieldName] = true
		}
	}

	filtered := make(map[string]any, len(visible))
	for k, v := range full {
		if visible[k] {
			filtered[k] = v
		}
	}
	return filtered
}

// PermissionEngine загружает permission-строки, через которые скан решает,
// заблокирована ли запись и какие поля отдать сканирующему.
type PermissionEngine struct {
	repo repo.LostFoundRepository
}

func NewPermissionEngine(r repo.LostFoundRepository) *PermissionEngine {
	return &PermissionEngine{repo: r}
}

// Load возвращает permission-строки QR.
func (e *PermissionEngine) Load(ctx context.Context, qrID string) (Permissions, error) {
	perms, err := e.repo.GetPermissions(ctx, qrID)
	if err != nil {
		return nil, err
	}
	return Permissions(perms), nil
}
