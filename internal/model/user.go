package model

import "time"

// Провайдеры аутентификации.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Роли пользователя. Роль admin даёт режим edit при сканировании
// любого QR (вместо захардкоженного идентификатора).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User — учётная запись (локальный пароль или Google).
type User struct {
	UserID   string `gorm:"primaryKey;type:uuid;column:userid"`
	Email    string `gorm:"size:255;uniqueIndex;not null"`
	Password string `gorm:"size:255"` // bcrypt-хеш, пустой для Google-пользователей

	FirstName string `gorm:"size:255"`
	LastName  string `gorm:"size:255"`

	Provider string `gorm:"size:50;default:local"`
	Role     string `gorm:"size:20;default:user"`

	LastLoginAt  *time.Time
	ActiveStatus bool      `gorm:"default:true"`
	CreatedDate  time.Time `gorm:"autoCreateTime"`
}

// TableName сохраняет историческое имя таблицы.
func (User) TableName() string { return "user_dtls" }

// IsAdmin — проверка роли.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
