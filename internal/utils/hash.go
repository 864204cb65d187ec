package utils

import "golang.org/x/crypto/bcrypt"

// CheckPassword verifies a login secret against the stored bcrypt hash.
// Hashes are produced out of band when admin accounts are provisioned.
func CheckPassword(hashed, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
