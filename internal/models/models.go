package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	DefaultAvatarName = "default_avatar"
)

type User struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"                json:"id"`
	Username       string     `gorm:"size:20;uniqueIndex;not null"        json:"username"`
	PasswordHash   string     `gorm:"not null"                            json:"-"`
	RoleID         uuid.UUID  `gorm:"type:uuid;index;not null"            json:"-"`
	Role           Role       `gorm:"foreignKey:RoleID;references:ID"     json:"role"`
	RoleAssignedAt time.Time  `gorm:"not null"                            json:"-"`
	AvatarID       *uuid.UUID `gorm:"type:uuid"                           json:"-"`
	Avatar         *Image     `gorm:"foreignKey:AvatarID;references:ID"   json:"avatar,omitempty"`
	Posts          []Post     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role.Name == RoleAdmin
}

type Role struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Name        string    `gorm:"size:20;uniqueIndex;not null"  json:"name"`
	Description string    `gorm:"size:100"                      json:"description"`
	Users       []User    `gorm:"foreignKey:RoleID"             json:"users,omitempty"`
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	Title     string    `gorm:"size:50;uniqueIndex;not null"  json:"title"`
	Text      string    `gorm:"type:text;not null"            json:"text"`
	OwnerID   uuid.UUID `gorm:"type:uuid;index;not null"      json:"-"`
	Owner     User      `gorm:"foreignKey:OwnerID"            json:"owner"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Image struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Size        int64     `gorm:"not null"                  json:"size"`
	Location    string    `gorm:"uniqueIndex;not null"      json:"location"`
	ContentType string    `gorm:"size:64"                   json:"content_type"`
	CreatedAt   time.Time `json:"created_at"`
}

func (i *Image) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func All() []any {
	return []any{&Role{}, &Image{}, &User{}, &Post{}}
}
