package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quickqr/internal/model"
	"quickqr/internal/qrgen"
	"quickqr/internal/repo"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DesignService — обычная генерация QR (url/text/wifi/email/phone/sms/contact)
// с сохранением параметров дизайна.
type DesignService struct {
	repo     repo.DesignRepository
	renderer Renderer
	logger   *zap.SugaredLogger
}

func NewDesignService(r repo.DesignRepository, renderer Renderer, logger *zap.SugaredLogger) *DesignService {
	return &DesignService{repo: r, renderer: renderer, logger: logger}
}

// DesignInput — параметры генерации.
type DesignInput struct {
	Content         string
	QRType          string
	Title           string
	Description     string
	Size            int
	ErrorCorrection string
	Border          int
	ForegroundColor string
	BackgroundColor string
	LogoURL         string
}

// DesignResult — результат генерации с метаданными.
type DesignResult struct {
	QRID       string         `json:"qr_id"`
	QRCodeData string         `json:"qr_code_data"`
	Metadata   map[string]any `json:"metadata"`
}

func (in *DesignInput) applyDefaults() {
	if in.Size == 0 {
		in.Size = 300
	}
	if in.ErrorCorrection == "" {
		in.ErrorCorrection = "M"
	}
	if in.ForegroundColor == "" {
		in.ForegroundColor = "#000000"
	}
	if in.BackgroundColor == "" {
		in.BackgroundColor = "#FFFFFF"
	}
}

// Generate сохраняет дизайн и рендерит изображение.
func (s *DesignService) Generate(ctx context.Context, userID string, in DesignInput) (*DesignResult, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
	}
	in.applyDefaults()

	id := uuid.NewString()
	if err := s.repo.CreateDesign(ctx, &model.QRDesign{
		ID:              id,
		UserID:          userID,
		Content:         in.Content,
		QRType:          in.QRType,
		Title:           in.Title,
		Description:     in.Description,
		Size:            in.Size,
		ErrorCorrection: in.ErrorCorrection,
		Border:          in.Border,
		ForegroundColor: in.ForegroundColor,
		BackgroundColor: in.BackgroundColor,
		LogoURL:         in.LogoURL,
	}); err != nil {
		return nil, err
	}

	formatted := qrgen.FormatContent(in.Content, in.QRType)
	res := s.renderer.Render(qrgen.Request{
		Content:         formatted,
		Size:            in.Size,
		ErrorCorrection: in.ErrorCorrection,
		Border:          in.Border,
		ForegroundColor: in.ForegroundColor,
		BackgroundColor: in.BackgroundColor,
		LogoURL:         in.LogoURL,
	})
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrRender, res.Error)
	}

	return &DesignResult{
		QRID:       id,
		QRCodeData: res.QRCodeData,
		Metadata: map[string]any{
			"content":          formatted,
			"qr_type":          in.QRType,
			"size":             in.Size,
			"error_correction": in.ErrorCorrection,
		},
	}, nil
}

// GenerateContact рендерит contact_qr: в vCard попадают только поля
// с флагом show.
func (s *DesignService) GenerateContact(ctx context.Context, userID string, card qrgen.ContactCard, in DesignInput) (*DesignResult, error) {
	vcard := qrgen.BuildVCard(card)
	in.applyDefaults()

	id := uuid.NewString()
	if err := s.repo.CreateDesign(ctx, &model.QRDesign{
		ID:              id,
		UserID:          userID,
		Content:         vcard,
		QRType:          "contact_qr",
		Size:            in.Size,
		ErrorCorrection: in.ErrorCorrection,
		Border:          in.Border,
		ForegroundColor: in.ForegroundColor,
		BackgroundColor: in.BackgroundColor,
	}); err != nil {
		return nil, err
	}

	res := s.renderer.Render(qrgen.Request{
		Content:         vcard,
		Size:            in.Size,
		ErrorCorrection: in.ErrorCorrection,
		Border:          in.Border,
		ForegroundColor: in.ForegroundColor,
		BackgroundColor: in.BackgroundColor,
	})
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrRender, res.Error)
	}

	return &DesignResult{
		QRID:       id,
		QRCodeData: res.QRCodeData,
		Metadata: map[string]any{
			"qr_type":          "contact_qr",
			"size":             in.Size,
			"error_correction": in.ErrorCorrection,
		},
	}, nil
}

// DesignView — сохранённый дизайн в форме ответа.
type DesignView struct {
	ID              string    `json:"id"`
	QRType          string    `json:"qr_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Content         string    `json:"content"`
	Size            int       `json:"size"`
	ErrorCorrection string    `json:"error_correction"`
	Border          int       `json:"border"`
	ForegroundColor string    `json:"foreground_color"`
	BackgroundColor string    `json:"background_color"`
	LogoURL         string    `json:"logo_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func designView(d *model.QRDesign) DesignView {
	return DesignView{
		ID:              d.ID,
		QRType:          d.QRType,
		Title:           d.Title,
		Description:     d.Description,
		Content:         d.Content,
		Size:            d.Size,
		ErrorCorrection: d.ErrorCorrection,
		Border:          d.Border,
		ForegroundColor: d.ForegroundColor,
		BackgroundColor: d.BackgroundColor,
		LogoURL:         d.LogoURL,
		CreatedAt:       d.CreatedAt,
	}
}

// List возвращает сохранённые дизайны пользователя.
func (s *DesignService) List(ctx context.Context, userID string) ([]DesignView, error) {
	designs, err := s.repo.ListDesignsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]DesignView, 0, len(designs))
	for i := range designs {
		out = append(out, designView(&designs[i]))
	}
	return out, nil
}

// Get возвращает дизайн. Чужой дизайн недоступен не-админу и выглядит
// как отсутствующий.
func (s *DesignService) Get(ctx context.Context, userID, designID string, isAdmin bool) (*DesignView, error) {
	d, err := s.getOwned(ctx, userID, designID, isAdmin)
	if err != nil {
		return nil, err
	}
	v := designView(d)
	return &v, nil
}

// UsageEntry — один отчёт о скане дизайна.
type UsageEntry struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	Referrer  string    `json:"referrer,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage возвращает отчёты сканов дизайна с теми же правами доступа, что Get.
func (s *DesignService) Usage(ctx context.Context, userID, designID string, isAdmin bool) ([]UsageEntry, error) {
	if _, err := s.getOwned(ctx, userID, designID, isAdmin); err != nil {
		return nil, err
	}

	usage, err := s.repo.ListUsage(ctx, designID)
	if err != nil {
		return nil, err
	}
	out := make([]UsageEntry, 0, len(usage))
	for _, u := range usage {
		out = append(out, UsageEntry{
			ID:        u.ID,
			IPAddress: u.IPAddress,
			UserAgent: u.UserAgent,
			Referrer:  u.Referrer,
			Location:  u.Location,
			CreatedAt: u.CreatedAt,
		})
	}
	return out, nil
}

func (s *DesignService) getOwned(ctx context.Context, userID, designID string, isAdmin bool) (*model.QRDesign, error) {
	d, err := s.repo.GetDesign(ctx, designID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if d.UserID != userID && !isAdmin {
		return nil, ErrNotFound
	}
	return d, nil
}
