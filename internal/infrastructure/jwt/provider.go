package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/blockprotocol/hub-api/internal/config"
)

const issuer = "blockprotocol-hub"

// Claims holds the JWT payload fields.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Provider signs and verifies session tokens. RS256 is used when key files
// are configured; otherwise HS256 with a key derived from SESSION_SECRET.
type Provider struct {
	method    jwt.SigningMethod
	signKey   interface{}
	verifyKey interface{}
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	if cfg.JWTPrivateKeyPath != "" {
		return newRSAProvider(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	}
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Development only: config rejects this in production.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, err
		}
	}
	return NewHMACProvider(secret)
}

// NewHMACProvider derives a 256-bit HS256 key from secret.
func NewHMACProvider(secret []byte) (*Provider, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("hub-api session jwt")), key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return &Provider{method: jwt.SigningMethodHS256, signKey: key, verifyKey: key}, nil
}

func newRSAProvider(privPath, pubPath string) (*Provider, error) {
	privBytes, err := os.ReadFile(privPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	var pubKey *rsa.PublicKey
	if pubPath == "" {
		pubKey = &privKey.PublicKey
	} else {
		pubBytes, err := os.ReadFile(pubPath)
		if err != nil {
			return nil, fmt.Errorf("read public key: %w", err)
		}
		pubKey, err = jwt.ParseRSAPublicKeyFromPEM(pubBytes)
		if err != nil {
			return nil, fmt.Errorf("parse public key: %w", err)
		}
	}

	return &Provider{method: jwt.SigningMethodRS256, signKey: privKey, verifyKey: pubKey}, nil
}

// Sign issues a token for the session that expires with it.
func (p *Provider) Sign(userID, sessionID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(p.method, claims)
	return token.SignedString(p.signKey)
}

func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != p.method.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return p.verifyKey, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
