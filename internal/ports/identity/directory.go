package identity

import "context"

// User es la proyección mínima que necesita este servicio del sistema
// de identidades externo.
type User struct {
	ID    string
	Email string
}

// Directory resuelve identidades en ambas direcciones. Se usa cuando los
// claims de sesión no traen e-mail y hay que matchear un invite pendiente
// direccionado por e-mail.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (User, error)
	LookupByID(ctx context.Context, userID string) (User, error)
}
