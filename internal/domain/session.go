package domain

// Mode discrimina la variante activa de Identity.
type Mode int

const (
	ModeUnauthenticated Mode = iota
	ModeAuthenticated
	ModeGuest
)

func (m Mode) String() string {
	switch m {
	case ModeAuthenticated:
		return "authenticated"
	case ModeGuest:
		return "guest"
	default:
		return "unauthenticated"
	}
}

// Identity es el actor actual. Solo uno de Token / SessionID puede estar presente.
type Identity struct {
	Mode      Mode   `json:"mode"`
	User      *User  `json:"user,omitempty"`
	Token     string `json:"-"`
	SessionID string `json:"-"`
}

// Unauthenticated devuelve la identidad vacía.
func Unauthenticated() Identity {
	return Identity{Mode: ModeUnauthenticated}
}

// Authenticated construye una identidad con cuenta durable.
func Authenticated(token string, user User) Identity {
	u := user
	return Identity{Mode: ModeAuthenticated, User: &u, Token: token}
}

// Guest construye una identidad efímera de invitado.
func Guest(sessionID string, user User) Identity {
	u := user
	return Identity{Mode: ModeGuest, User: &u, SessionID: sessionID}
}

// UserID devuelve el id del usuario o 0 si no hay identidad.
func (i Identity) UserID() int64 {
	if i.User == nil {
		return 0
	}
	return i.User.ID
}

// Credentials extrae la credencial que adjunta el transporte.
func (i Identity) Credentials() Credentials {
	switch i.Mode {
	case ModeAuthenticated:
		return Credentials{BearerToken: i.Token}
	case ModeGuest:
		return Credentials{SessionID: i.SessionID}
	default:
		return Credentials{}
	}
}

// Credentials es lo que viaja en cabeceras; como mucho un campo no vacío.
type Credentials struct {
	BearerToken string
	SessionID   string
}

// Empty indica que no hay credencial que adjuntar.
func (c Credentials) Empty() bool {
	return c.BearerToken == "" && c.SessionID == ""
}
