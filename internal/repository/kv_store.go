package repository

import "context"

// Claves persistidas de la identidad.
const (
	KeyAuthToken   = "auth_token"
	KeyAuthUser    = "auth_user"
	KeySessionID   = "session_id"
	KeyGuestUserID = "guest_user_id"
)

// KVStore es el almacenamiento clave-valor durable donde vive la identidad.
// Get devuelve ok=false cuando la clave no existe; Remove de una clave ausente no es error.
type KVStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
