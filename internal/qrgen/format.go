// Package qrgen форматирует полезную нагрузку QR и рендерит растровое изображение.
package qrgen

import (
	"fmt"
	"regexp"
	"strings"
)

// Семантические типы QR.
const (
	TypeURL     = "url"
	TypeText    = "text"
	TypeContact = "contact"
	TypeWiFi    = "wifi"
	TypeEmail   = "email"
	TypePhone   = "phone"
	TypeSMS     = "sms"
	TypeContent = "content"
)

// FormatContent превращает семантический тип в литеральную строку для кодирования.
// Чистая функция: неизвестные типы проходят без изменений.
func FormatContent(content, qrType string) string {
	switch qrType {
	case TypeURL:
		return formatURL(content)
	case TypeContact:
		return formatContact(content)
	case TypeWiFi:
		return formatWiFi(content)
	case TypeEmail:
		return "mailto:" + content
	case TypePhone:
		return "tel:" + content
	case TypeSMS:
		return formatSMS(content)
	default:
		return content
	}
}

func formatURL(u string) string {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return "https://" + u
	}
	return u
}

// formatContact — best-effort vCard из одной строки.
// Структурированные контакты идут через BuildVCard.
func formatContact(data string) string {
	return fmt.Sprintf("BEGIN:VCARD\nVERSION:3.0\nFN:%s\nEND:VCARD", data)
}

// formatWiFi — шаблонная строка, не строгий парсер (известное ограничение).
func formatWiFi(data string) string {
	return fmt.Sprintf("WIFI:T:WPA;S:%s;P:password;;", data)
}

func formatSMS(data string) string {
	if phone, message, ok := strings.Cut(data, ":"); ok {
		return fmt.Sprintf("sms:%s:%s", phone, message)
	}
	return "sms:" + data
}

var urlRe = regexp.MustCompile(`^https?://` +
	`(?:(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,6}\.?|` +
	`localhost|` +
	`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
	`(?::\d+)?` +
	`(?:/?|[/?]\S+)$`)

// ValidateURL — проверка формата URL для подсказок на фронтенде.
func ValidateURL(u string) bool {
	return urlRe.MatchString(u)
}
