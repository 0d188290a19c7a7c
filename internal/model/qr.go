package model

import "time"

// QRRecord — запись lost-and-found QR. Создаётся только с Name;
// детальные поля заполняются один раз (блокировка через permissions).
type QRRecord struct {
	QRID   string `gorm:"primaryKey;type:uuid;column:qr_id"`
	Name   string `gorm:"size:255"`
	UserID string `gorm:"size:255;index"` // владелец (кто сгенерировал)
	QRURL  string `gorm:"size:500"`

	FirstName       string `gorm:"size:255"`
	LastName        string `gorm:"size:255"`
	PhoneNumber     string `gorm:"size:50"`
	Email           string `gorm:"size:255"`
	Address         string `gorm:"type:text"`
	AddressLocation string `gorm:"size:255"`
	Description     string `gorm:"type:text"`
	ItemType        string `gorm:"size:100"`

	// CAS-флаг: переводится false->true одним guarded UPDATE
	// в транзакции update-details вместе со вставкой permissions.
	DetailsLocked bool `gorm:"not null;default:false"`

	IsFound       bool `gorm:"default:false"`
	FoundDate     *time.Time
	FoundLocation string `gorm:"size:255"`
	FoundByUserID string `gorm:"size:255"`

	CreateDate       time.Time `gorm:"autoCreateTime"`
	LastModifiedDate time.Time `gorm:"autoUpdateTime"`
	ActiveStatus     bool      `gorm:"default:true"`
}

func (QRRecord) TableName() string { return "lost_and_found_qr" }

// HasDetails — заполнены ли обязательные контактные поля.
func (q *QRRecord) HasDetails() bool {
	return q.FirstName != "" && q.LastName != "" && q.PhoneNumber != ""
}

// ScanMapping — состояние сканирования для пары (qr, user).
// Создаётся лениво при первом скане, апсертится, никогда не удаляется.
type ScanMapping struct {
	ID     int64  `gorm:"primaryKey;autoIncrement"`
	QRID   string `gorm:"type:uuid;column:qrid;uniqueIndex:idx_qr_user;not null"`
	UserID string `gorm:"size:255;column:userid;uniqueIndex:idx_qr_user;not null"`

	IsFirstScan    bool `gorm:"default:true"`
	DetailsUpdated bool `gorm:"default:false"`

	ScanLocation  string `gorm:"size:255"`
	ScanIP        string `gorm:"size:45"`
	ScanUserAgent string `gorm:"type:text"`

	ScanDate     time.Time `gorm:"autoCreateTime"`
	CreatedDate  time.Time `gorm:"autoCreateTime"`
	ActiveStatus bool      `gorm:"default:true"`
}

func (ScanMapping) TableName() string { return "user_qr_mpg" }

// Типы событий сканирования.
const (
	ScanTypeView   = "view"
	ScanTypeUpdate = "update"
	ScanTypeFound  = "found"
)

// ScanEvent — append-only журнал действий над QR. После записи не изменяется.
type ScanEvent struct {
	ID     string `gorm:"primaryKey;type:uuid"`
	QRID   string `gorm:"type:uuid;column:qrid;index"`
	UserID string `gorm:"size:255;column:userid"` // пустой для анонимных сканов

	ScannedLocation  string `gorm:"size:255"` // "lat,lng"
	ScannedIPAddress string `gorm:"size:45"`
	ScannedUserAgent string `gorm:"type:text"`

	ScanType    string `gorm:"size:50;default:view"`
	ActionTaken string `gorm:"size:100"`

	CreateDate   time.Time `gorm:"autoCreateTime"`
	ActiveStatus bool      `gorm:"default:true"`
}

func (ScanEvent) TableName() string { return "lost_and_found_scanner" }

// Значения permission.
const (
	PermissionVisible = "visible"
	PermissionHidden  = "hidden"
)

// FieldPermission — видимость одного поля для сканирующих.
// Само существование строк для qr_id является флагом блокировки записи.
type FieldPermission struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	QRID       string `gorm:"type:uuid;column:qr_id;uniqueIndex:idx_perm_qr_field;not null"`
	FieldName  string `gorm:"size:100;uniqueIndex:idx_perm_qr_field;not null"`
	Permission string `gorm:"size:20"`

	CreatedDate  time.Time `gorm:"autoCreateTime"`
	ActiveStatus bool      `gorm:"default:true"`
}

func (FieldPermission) TableName() string { return "qr_permission_dtls" }
