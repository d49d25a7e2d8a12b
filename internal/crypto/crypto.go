package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// keyLen — длина ключа для AES‑256 (в байтах).
const keyLen = 32

// kdfIterations — число итераций PBKDF2 при выводе мастер-ключа.
const kdfIterations = 100_000

// CheckPhrase запечатывается мастер-ключом и позволяет проверить мастер-пароль
// до начала выгрузки.
const CheckPhrase = "passwork"

// ErrSealedFormat — запечатанное значение короче nonce или не является base64.
var ErrSealedFormat = errors.New("invalid sealed value")

// DeriveKey выводит мастер-ключ из мастер-пароля и соли аккаунта (PBKDF2-SHA256).
func DeriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, kdfIterations, keyLen, sha256.New)
}

// NewSalt возвращает случайную соль для DeriveKey.
func NewSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Encrypt шифрует данные plain с помощью AES‑GCM и заданного ключа.
// Возвращает шифртекст и nonce.
func Encrypt(plain []byte, key []byte) ([]byte, []byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, err
	}
	out := gcm.Seal(nil, nonce, plain, nil)
	return out, nonce, nil
}

// Decrypt расшифровывает шифртекст cipher с использованием AES‑GCM, ключа и nonce.
func Decrypt(ciphertext, nonce, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("invalid nonce size")
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// Seal шифрует plain и упаковывает результат в base64(nonce‖ciphertext) —
// формат полей cryptedPassword и encryptedData.
func Seal(plain, key []byte) (string, error) {
	c, n, err := Encrypt(plain, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(append(n, c...)), nil
}

// Open — обратная операция к Seal.
func Open(sealed string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return nil, ErrSealedFormat
	}
	// AES-GCM со стандартным nonce (12 байт)
	const nonceLen = 12
	if len(raw) < nonceLen {
		return nil, ErrSealedFormat
	}
	return Decrypt(raw[nonceLen:], raw[:nonceLen], key)
}
