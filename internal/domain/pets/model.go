package pets

import "time"

// Species define las especies soportadas.
// @Enum dog, cat
type Species string

const (
	SpeciesDog Species = "dog"
	SpeciesCat Species = "cat"
)

// Sex define el sexo de la mascota.
// @Enum male, female, unknown
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// Pet es el registro de propiedad + el perfil mínimo que necesita este
// servicio: decide ownership (ground truth para grants) y alimenta la
// vista filtrada de links públicos. El historial clínico completo vive
// en otro servicio.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species Species
	Breed   string
	Sex     Sex

	BirthDate *time.Time
	Microchip string

	// Etiquetas simples para las secciones compartibles del perfil.
	Allergies    []string
	Vaccinations []string

	Notes string

	CreatedAt time.Time
	UpdatedAt time.Time
}
