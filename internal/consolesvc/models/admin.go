package models

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// Wildcard in a permission list grants every section.
const Wildcard = "*"

// Permissions is either the wildcard or an explicit list of sections.
// The platform sends the wildcard as the bare string "*" or inside a list.
type Permissions []string

func (p *Permissions) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s == "" {
			*p = Permissions{}
		} else {
			*p = Permissions{s}
		}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*p = Permissions(list)
	return nil
}

func (p Permissions) Contains(section string) bool {
	for _, s := range p {
		if s == section {
			return true
		}
	}
	return false
}

func (p Permissions) IsWildcard() bool {
	return p.Contains(Wildcard)
}

type Admin struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	IsActive    bool        `json:"is_active"`
	LastLogin   *time.Time  `json:"last_login,omitempty"`
}

type NewAdmin struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	DisplayName string   `json:"display_name"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions"`
}

// AdminUpdate carries only the fields being changed.
type AdminUpdate struct {
	ID          int64    `json:"id"`
	Role        *Role    `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	DisplayName *string  `json:"display_name,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
	Password    string   `json:"password,omitempty"`
}
