package domain

import (
	"strconv"
	"time"
)

// User es el registro de usuario que devuelve el backend y que se persiste en auth_user.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsGuest   bool      `json:"is_guest"`
	CreatedAt time.Time `json:"created_at"`
}

// GuestUsername construye el nombre visible de un invitado.
func GuestUsername(userID int64) string {
	return "guest_" + strconv.FormatInt(userID, 10)
}

// NewGuestUser sintetiza el usuario de display para una sesión invitada.
func NewGuestUser(userID int64, now time.Time) User {
	return User{
		ID:        userID,
		Username:  GuestUsername(userID),
		Email:     "",
		IsGuest:   true,
		CreatedAt: now.UTC(),
	}
}

// DisplayName replica lo que muestra la cabecera del chat.
func (u User) DisplayName() string {
	if u.IsGuest {
		return "Guest User"
	}
	return u.Username
}

// Subtitle es la segunda línea del perfil: email o sesión temporal.
func (u User) Subtitle() string {
	if u.IsGuest {
		return "Temporary Session"
	}
	return u.Email
}
