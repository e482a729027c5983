package ports

// OperatorClaims identify the authenticated caller of privileged routes.
type OperatorClaims struct {
	SubjectID string
	Role      string
}

type TokenVerifier interface {
	VerifyToken(raw string) (OperatorClaims, error)
}
