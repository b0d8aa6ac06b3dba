package model

import "github.com/171k/ICT602-Laundroyale/internal/docstore"

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Username       string `json:"username"`
	Phone          string `json:"phone"`
	Role           string `json:"role"`
	ProfilePicture string `json:"profile_picture"`
	PasswordHash   string `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func UserFromDoc(doc docstore.Doc) User {
	role := asString(doc.Data["role"])
	if role == "" {
		role = RoleCustomer
	}
	picture := asString(doc.Data["profile_picture"])
	if picture == "" {
		picture = "king.png"
	}

	return User{
		ID:             doc.ID,
		Name:           asString(doc.Data["name"]),
		Email:          asString(doc.Data["email"]),
		Username:       asString(doc.Data["username"]),
		Phone:          asString(doc.Data["phone"]),
		Role:           role,
		ProfilePicture: picture,
		PasswordHash:   asString(doc.Data["password_hash"]),
	}
}

func (u User) Data() map[string]interface{} {
	return map[string]interface{}{
		"name":            u.Name,
		"email":           u.Email,
		"username":        u.Username,
		"phone":           u.Phone,
		"role":            u.Role,
		"profile_picture": u.ProfilePicture,
		"password_hash":   u.PasswordHash,
	}
}
