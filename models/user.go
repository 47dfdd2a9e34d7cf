package models

import "gorm.io/gorm"

// User es un usuario interno de la constructora. DisplayName es el nombre
// que se estampa en cada evento del historial (AuditEvent.UserName).
type User struct {
	gorm.Model
	Login        string `gorm:"column:login;uniqueIndex;not null" json:"login"`
	DisplayName  string `gorm:"column:display_name;not null"      json:"displayName"`
	PasswordHash string `gorm:"column:password_hash;not null"     json:"-"`

	Roles []Role `gorm:"many2many:user_roles;" json:"roles,omitempty"`
}

func (User) TableName() string { return "users" }
