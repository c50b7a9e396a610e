package messenger

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// CryptorInfo is the HKDF info string for link keys
const CryptorInfo = "aalink-link-v1"

var ErrCryptorInactive = errors.New("cryptor not active")

// Cryptor encrypts and decrypts frame payloads of encrypted envelopes.
// Frames are processed in wire order, so implementations may be stateful.
type Cryptor interface {
	Active() bool
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// PlainCryptor is used before the link handshake completes.
// Encrypted envelopes cannot pass through it.
type PlainCryptor struct{}

func (PlainCryptor) Active() bool { return false }

func (PlainCryptor) Encrypt([]byte) ([]byte, error) { return nil, ErrCryptorInactive }

func (PlainCryptor) Decrypt([]byte) ([]byte, error) { return nil, ErrCryptorInactive }

// Role selects which derived key a side sends with
type Role uint8

const (
	RoleDevice Role = iota
	RoleHeadUnit
)

// KeyPair is an X25519 key pair used for the link key agreement
type KeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// GenerateKeyPair creates a random X25519 key pair
func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return nil, err
	}

	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	copy(kp.Public[:], pub)

	return kp, nil
}

// AEADCryptor seals each frame with ChaCha20-Poly1305 using a per-direction
// key and a per-direction frame counter as nonce.
type AEADCryptor struct {
	mu      sync.Mutex
	send    cipher.AEAD
	recv    cipher.AEAD
	sendSeq uint64
	recvSeq uint64
}

// NewAEADCryptor derives link keys from local and the peer's public key.
// Both sides must use opposite roles.
func NewAEADCryptor(role Role, local *KeyPair, peerPublic []byte) (*AEADCryptor, error) {
	if len(peerPublic) != curve25519.PointSize {
		return nil, fmt.Errorf("invalid peer public key length: %d", len(peerPublic))
	}

	shared, err := curve25519.X25519(local.Private[:], peerPublic)
	if err != nil {
		return nil, fmt.Errorf("key agreement failed: %w", err)
	}

	// Keys = HKDF(salt=0, IKM=shared, info=CryptorInfo), device key first
	salt := make([]byte, 32)
	reader := hkdf.New(sha256.New, shared, salt, []byte(CryptorInfo))
	keys := make([]byte, 2*chacha20poly1305.KeySize)
	if _, err := reader.Read(keys); err != nil {
		return nil, err
	}

	deviceKey := keys[:chacha20poly1305.KeySize]
	headUnitKey := keys[chacha20poly1305.KeySize:]
	sendKey, recvKey := deviceKey, headUnitKey
	if role == RoleHeadUnit {
		sendKey, recvKey = headUnitKey, deviceKey
	}

	send, err := chacha20poly1305.New(sendKey)
	if err != nil {
		return nil, err
	}
	recv, err := chacha20poly1305.New(recvKey)
	if err != nil {
		return nil, err
	}

	return &AEADCryptor{send: send, recv: recv}, nil
}

func (c *AEADCryptor) Active() bool { return true }

// Encrypt seals one frame payload
func (c *AEADCryptor) Encrypt(plaintext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nonce := frameNonce(c.sendSeq)
	c.sendSeq++
	return c.send.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens one frame payload. The counter only advances on success.
func (c *AEADCryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	plaintext, err := c.recv.Open(nil, frameNonce(c.recvSeq), ciphertext, nil)
	if err != nil {
		return nil, err
	}
	c.recvSeq++
	return plaintext, nil
}

func frameNonce(seq uint64) []byte {
	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[chacha20poly1305.NonceSize-8:], seq)
	return nonce
}
