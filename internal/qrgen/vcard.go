package qrgen

import "strings"

// ContactField — значение с флагом видимости. В vCard попадают
// только поля с Show=true.
type ContactField struct {
	Value string `json:"value"`
	Show  bool   `json:"show"`
}

// ContactCard — структурированный контакт для contact_qr.
type ContactCard struct {
	FullName    ContactField `json:"full_name"`
	PhoneNumber ContactField `json:"phone_number"`
	Address     ContactField `json:"address"`
	Email       ContactField `json:"email"`
	Company     ContactField `json:"company"`
	Website     ContactField `json:"website"`
}

// BuildVCard собирает vCard 3.0 только из помеченных полей.
func BuildVCard(c ContactCard) string {
	lines := []string{"BEGIN:VCARD", "VERSION:3.0"}

	if c.FullName.Show && c.FullName.Value != "" {
		lines = append(lines, "FN:"+c.FullName.Value)
	}
	if c.PhoneNumber.Show && c.PhoneNumber.Value != "" {
		lines = append(lines, "TEL:"+c.PhoneNumber.Value)
	}
	if c.Address.Show && c.Address.Value != "" {
		lines = append(lines, "ADR:;;"+c.Address.Value)
	}
	if c.Email.Show && c.Email.Value != "" {
		lines = append(lines, "EMAIL:"+c.Email.Value)
	}
	if c.Company.Show && c.Company.Value != "" {
		lines = append(lines, "ORG:"+c.Company.Value)
	}
	if c.Website.Show && c.Website.Value != "" {
		lines = append(lines, "URL:"+c.Website.Value)
	}

	lines = append(lines, "END:VCARD")
	return strings.Join(lines, "\n")
}
