package sharelinks

import "time"

// Settings controla qué secciones del perfil quedan visibles por el link.
// Es un sub-scoping independiente del scope de los grants: acá se recorta
// por sección de la ficha, no por mascota. Inmutable post-creación: para
// cambiarlo se emite un link nuevo.
type Settings struct {
	Identification bool `json:"identification"`
	Medical        bool `json:"medical"`
	Vaccinations   bool `json:"vaccinations"`
	Allergies      bool `json:"allergies"`
}

// DefaultSettings devuelve un valor fresco por llamada (nada de defaults
// globales mutables compartidos entre creaciones concurrentes).
func DefaultSettings() Settings {
	return Settings{Identification: true}
}

// ShareLink: acceso read-only a UNA mascota portando solo el token.
// El token es la única credencial; no hay cuenta ni accessLevel (queda
// implícitamente por debajo de viewer).
type ShareLink struct {
	ID    string
	Token string

	PetID       string
	OwnerUserID string

	Settings Settings

	ValidUntil *time.Time
	// IsActive permite revocar sin borrar el historial del link.
	IsActive bool

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}
