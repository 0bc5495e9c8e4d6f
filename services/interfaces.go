package services

// PasswordHasher hashes and verifies local credentials. SSO-provisioned
// accounts get a random placeholder secret hashed through this, so the
// password column is populated but unusable.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}
