package models

import "gorm.io/gorm"

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleOfficial UserRole = "official" // проверяет отзывы, меняет статус проекта
	RoleCitizen  UserRole = "citizen"
)

func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleOfficial, RoleCitizen:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	Username     string   `gorm:"uniqueIndex;size:100;not null"`
	Name         string   `gorm:"size:255"`
	PasswordHash string   `gorm:"not null"`
	Role         UserRole `gorm:"type:varchar(20);not null"`
}
