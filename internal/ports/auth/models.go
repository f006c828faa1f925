package auth

// Claims representa la identidad extraída del token de sesión.
// Email importa acá: los invites pendientes se matchean por e-mail
// hasta que el grantee acepta y queda atado a su UserID.
type Claims struct {
	UserID string
	Email  string
}
