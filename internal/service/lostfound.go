package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quickqr/internal/model"
	"quickqr/internal/qrgen"
	"quickqr/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Режимы интерфейса для сканирующего.
const (
	UIModeView = "view"
	UIModeEdit = "edit"
)

// Renderer — контракт рендерера QR; реализация передаётся явно,
// а не берётся из глобального состояния.
type Renderer interface {
	Render(req qrgen.Request) qrgen.Result
}

// LostFound — конечный автомат сканирования:
// NEW -> FIRST_SCAN_PENDING_DETAILS -> DETAILS_UNLOCKED_EDIT | DETAILS_LOCKED_VIEW -> FOUND.
type LostFound struct {
	repo     repo.LostFoundRepository
	perms    *PermissionEngine
	renderer Renderer
	logger   *zap.SugaredLogger

	frontendBaseURL string
}

func NewLostFound(r repo.LostFoundRepository, perms *PermissionEngine, renderer Renderer, logger *zap.SugaredLogger, frontendBaseURL string) *LostFound {
	return &LostFound{
		repo:            r,
		perms:           perms,
		renderer:        renderer,
		logger:          logger,
		frontendBaseURL: frontendBaseURL,
	}
}

// ScanContext — метаданные одного запроса на скан.
type ScanContext struct {
	UserID    string // пустой = анонимный скан
	IsAdmin   bool
	IP        string
	UserAgent string
	Lat, Lng  *float64
}

// ScanResult — форма ответа на скан.
type ScanResult struct {
	IsFirstScan bool           `json:"is_first_scan"`
	QRName      string         `json:"qr_name"`
	HasDetails  bool           `json:"has_details"`
	CanEdit     bool           `json:"can_edit"`
	UIMode      string         `json:"ui_mode"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
}

// GenerateResult — ответ на генерацию lost-and-found QR.
type GenerateResult struct {
	Success    bool   `json:"success"`
	QRID       string `json:"qr_id"`
	QRCodeData string `json:"qr_code_data"`
	ViewURL    string `json:"view_url"`
}

// Generate создаёт QR-запись (только имя) с маппингом владельца и рендерит
// изображение, указывающее на страницу просмотра.
func (s *LostFound) Generate(ctx context.Context, ownerID, name string) (*GenerateResult, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	qrID := uuid.NewString()
	err := s.repo.CreateQR(ctx,
		&model.QRRecord{QRID: qrID, Name: name, UserID: ownerID, ActiveStatus: true},
		&model.ScanMapping{QRID: qrID, UserID: ownerID, IsFirstScan: true, DetailsUpdated: false},
	)
	if err != nil {
		return nil, err
	}

	viewURL := fmt.Sprintf("%s/lost-and-found/%s", s.frontendBaseURL, qrID)
	res := s.renderer.Render(qrgen.Request{
		Content:         qrgen.FormatContent(viewURL, qrgen.TypeURL),
		Size:            300,
		ErrorCorrection: "M",
		Border:          4,
		ForegroundColor: "#000000",
		BackgroundColor: "#FFFFFF",
	})
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrRender, res.Error)
	}

	// Сохранение view URL — мягкая ошибка: QR уже создан и отрендерен
	if err := s.repo.SaveQRURL(ctx, qrID, viewURL); err != nil {
		s.logger.Warnw("failed to save qr url", "qr_id", qrID, "error", err)
	}

	return &GenerateResult{Success: true, QRID: qrID, QRCodeData: res.QRCodeData, ViewURL: viewURL}, nil
}

// Scan обрабатывает view-скан: всегда пишет событие, лениво создаёт маппинг
// и решает форму ответа по состоянию (первый скан / блокировка / детали).
func (s *LostFound) Scan(ctx context.Context, qrID string, sc ScanContext) (*ScanResult, error) {
	if _, err := uuid.Parse(qrID); err != nil {
		return nil, fmt.Errorf("%w: malformed qr id", ErrValidation)
	}

	qr, err := s.repo.GetQR(ctx, qrID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	perms, err := s.perms.Load(ctx, qrID)
	if err != nil {
		return nil, err
	}
	isLocked := perms.Locked()

	var mapping *model.ScanMapping
	if sc.UserID != "" {
		mapping, err = s.repo.GetMapping(ctx, qrID, sc.UserID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	firstScan := mapping == nil

	location := ""
	if sc.Lat != nil && sc.Lng != nil {
		location = fmt.Sprintf("%v,%v", *sc.Lat, *sc.Lng)
	}

	event := &model.ScanEvent{
		ID:               uuid.NewString(),
		QRID:             qrID,
		UserID:           sc.UserID,
		ScanType:         model.ScanTypeView,
		ActionTaken:      "viewed_details",
		ScannedIPAddress: sc.IP,
		ScannedUserAgent: sc.UserAgent,
		ScannedLocation:  location,
	}

	var newMapping *model.ScanMapping
	if firstScan && sc.UserID != "" {
		newMapping = &model.ScanMapping{
			QRID:           qrID,
			UserID:         sc.UserID,
			IsFirstScan:    true,
			DetailsUpdated: false,
			ScanIP:         sc.IP,
			ScanUserAgent:  sc.UserAgent,
			ScanLocation:   location,
		}
	}

	if err := s.repo.RecordScan(ctx, event, newMapping); err != nil {
		return nil, err
	}

	canEdit := sc.IsAdmin
	uiMode := UIModeView
	if canEdit {
		uiMode = UIModeEdit
	}

	// Первый скан незаблокированной записи: сканирующий должен заполнить
	// детали, поэтому получает режим edit независимо от роли.
	if firstScan && !isLocked {
		s.logger.Infow("first scan", "qr_id", qrID, "user_id", sc.UserID)
		return &ScanResult{
			IsFirstScan: true,
			QRName:      qr.Name,
			HasDetails:  false,
			CanEdit:     true,
			UIMode:      UIModeEdit,
			Message:     "First time scan. Please update details.",
		}, nil
	}

	hasDetails := qr.HasDetails()
	if !hasDetails {
		return &ScanResult{
			IsFirstScan: false,
			QRName:      qr.Name,
			HasDetails:  false,
			CanEdit:     canEdit,
			UIMode:      uiMode,
			Message:     "Details not yet filled. Please update details.",
		}, nil
	}

	// Заблокированная запись показывает отфильтрованные детали всем,
	// включая сканирующих без истории.
	return &ScanResult{
		IsFirstScan: false,
		QRName:      qr.Name,
		HasDetails:  true,
		CanEdit:     canEdit,
		UIMode:      uiMode,
		Details:     perms.Filter(detailFields(qr)),
	}, nil
}

// detailFields — полный набор деталей, к которому применяются permissions.
func detailFields(qr *model.QRRecord) map[string]any {
	var foundDate any
	if qr.FoundDate != nil {
		foundDate = qr.FoundDate.UTC().Format(time.RFC3339)
	}
	return map[string]any{
		"first_name":       qr.FirstName,
		"last_name":        qr.LastName,
		"phone_number":     qr.PhoneNumber,
		"email":            qr.Email,
		"address":          qr.Address,
		"address_location": qr.AddressLocation,
		"description":      qr.Description,
		"item_type":        qr.ItemType,
		"is_found":         qr.IsFound,
		"found_date":       foundDate,
		"found_location":   qr.FoundLocation,
	}
}

// UpdateDetailsInput — однократное заполнение деталей с опциональной фиксацией.
type UpdateDetailsInput struct {
	QRID            string
	UserID          string
	FirstName       string
	LastName        string
	PhoneNumber     string
	Email           string
	Address         string
	AddressLocation string
	Description     string
	ItemType        string
	Permissions     map[string]string
}

// UpdateDetails выполняет переход заполнения. Повторное заполнение
// зафиксированной записи — ErrLocked. Переход не зависит от is_found.
func (s *LostFound) UpdateDetails(ctx context.Context, in UpdateDetailsInput) error {
	if _, err := uuid.Parse(in.QRID); err != nil {
		return fmt.Errorf("%w: malformed qr id", ErrValidation)
	}
	if in.FirstName == "" || in.LastName == "" || in.PhoneNumber == "" {
		return fmt.Errorf("%w: first_name, last_name and phone_number are required", ErrValidation)
	}

	event := &model.ScanEvent{
		ID:          uuid.NewString(),
		QRID:        in.QRID,
		UserID:      in.UserID,
		ScanType:    model.ScanTypeUpdate,
		ActionTaken: "details_updated",
	}

	err := s.repo.UpdateDetails(ctx, in.QRID, repo.DetailUpdate{
		UserID:          in.UserID,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
		PhoneNumber:     in.PhoneNumber,
		Email:           in.Email,
		Address:         in.Address,
		AddressLocation: in.AddressLocation,
		Description:     in.Description,
		ItemType:        in.ItemType,
		Permissions:     in.Permissions,
	}, event)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrLocked):
		return ErrLocked
	}
	return err
}

// MarkFound — терминальный переход; не гейтится ни блокировкой,
// ни историей сканов, повторный вызов перезаписывает found-поля.
func (s *LostFound) MarkFound(ctx context.Context, qrID, userID, location string, date time.Time) error {
	if _, err := uuid.Parse(qrID); err != nil {
		return fmt.Errorf("%w: malformed qr id", ErrValidation)
	}

	event := &model.ScanEvent{
		ID:          uuid.NewString(),
		QRID:        qrID,
		UserID:      userID,
		ScanType:    model.ScanTypeFound,
		ActionTaken: "marked_found",
	}

	err := s.repo.MarkFound(ctx, qrID, userID, location, date, event)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// QRSummary — элемент списка QR пользователя.
type QRSummary struct {
	QRID       string     `json:"qr_id"`
	Name       string     `json:"name"`
	IsFound    bool       `json:"is_found"`
	CreateDate time.Time  `json:"create_date"`
	FoundDate  *time.Time `json:"found_date,omitempty"`
}

// ListUserQRs возвращает активные QR, сгенерированные пользователем.
func (s *LostFound) ListUserQRs(ctx context.Context, userID string) ([]QRSummary, error) {
	qrs, err := s.repo.ListQRsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]QRSummary, 0, len(qrs))
	for _, qr := range qrs {
		out = append(out, QRSummary{
			QRID:       qr.QRID,
			Name:       qr.Name,
			IsFound:    qr.IsFound,
			CreateDate: qr.CreateDate,
			FoundDate:  qr.FoundDate,
		})
	}
	return out, nil
}
