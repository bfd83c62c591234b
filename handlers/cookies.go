package handlers

import (
	"golang.org/x/crypto/argon2"

	"sim-mahasiswa-server-go/models"
)

const (
	cookieKeyTime    = 1
	cookieKeyMemory  = 64 * 1024
	cookieKeyThreads = 4
	cookieKeyLength  = 64
)

// CookieKeys stretches the configured cookie key into a 32-byte HMAC key and
// a 32-byte AES-256 key. The salt is the cookie name, so the same config
// always yields the same keys and cookies survive a restart.
func CookieKeys(cfg models.CookieConfig) (hashKey, blockKey []byte) {
	key := argon2.IDKey(
		[]byte(cfg.Key),
		[]byte("sim-mahasiswa/"+cfg.Name),
		cookieKeyTime,
		cookieKeyMemory,
		cookieKeyThreads,
		cookieKeyLength,
	)
	return key[:32], key[32:]
}
