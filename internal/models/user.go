package models

import "time"

// Account represents a row in the PostgreSQL usuarios table.
// PasswordHash never leaves the process: it is excluded from JSON here and
// stripped at the type level by Profile().
type Account struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Correo       string    `json:"correo"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	ImagenURL    string    `json:"imagen"`
	Tipo         string    `json:"tipo"`
	Seguidores   int       `json:"seguidores"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the client-safe view of an Account. It has no hash field at
// all, so every response path that goes through it cannot leak credentials.
type Profile struct {
	ID         string    `json:"id"`
	Nombre     string    `json:"nombre"`
	Correo     string    `json:"correo"`
	Username   string    `json:"username"`
	ImagenURL  string    `json:"imagen"`
	Tipo       string    `json:"tipo"`
	Seguidores int       `json:"seguidores"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile projects the Account to its sanitized view.
func (a *Account) Profile() *Profile {
	return &Profile{
		ID:         a.ID,
		Nombre:     a.Nombre,
		Correo:     a.Correo,
		Username:   a.Username,
		ImagenURL:  a.ImagenURL,
		Tipo:       a.Tipo,
		Seguidores: a.Seguidores,
		CreatedAt:  a.CreatedAt,
	}
}

// RegisterRequest is the JSON body for POST /api/usuarios/registro.
type RegisterRequest struct {
	Nombre       string `json:"nombre"`
	Correo       string `json:"correo"`
	Username     string `json:"username"`
	Contrasena   string `json:"contrasena"`
	ImagenBase64 string `json:"imagenBase64"`
}

// LoginRequest is the JSON body for POST /api/usuarios/login. Query matches
// either the username or the email.
type LoginRequest struct {
	Query    string `json:"query"`
	Password string `json:"password"`
}
