package model

import "time"

// QRDesign — сохранённые параметры обычной генерации QR
// (не lost-and-found): контент, тип, размер, стиль.
type QRDesign struct {
	ID      string `gorm:"primaryKey;type:uuid"`
	UserID  string `gorm:"size:255;index"`
	Content string `gorm:"type:text;not null"`
	QRType  string `gorm:"size:50;not null"`

	Title       string `gorm:"size:255"`
	Description string `gorm:"type:text"`

	Size            int    `gorm:"default:300"`
	ErrorCorrection string `gorm:"size:1;default:M"`
	Border          int    `gorm:"default:4"`
	ForegroundColor string `gorm:"size:7;default:#000000"`
	BackgroundColor string `gorm:"size:7;default:#FFFFFF"`
	LogoURL         string `gorm:"size:500"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (QRDesign) TableName() string { return "qr_designs" }

// QRUsage — append-only отчёт о скане обычного QR (геолокация устройства).
type QRUsage struct {
	ID         string `gorm:"primaryKey;type:uuid"`
	QRDesignID string `gorm:"type:uuid;index"`

	IPAddress string `gorm:"size:45"`
	UserAgent string `gorm:"type:text"`
	Referrer  string `gorm:"size:500"`
	Location  string `gorm:"size:255"` // "lat,lng (±Nm)"

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (QRUsage) TableName() string { return "qr_usage" }
