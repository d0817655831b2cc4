package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	bolt "go.etcd.io/bbolt"
)

// TokenKey is the key the bearer token is stored under.
const TokenKey = "jwt_token"

var ErrNoToken = errors.New("no token stored")

func (s *Store) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.ClearToken()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(authBucket).Put([]byte(TokenKey), []byte(token))
	})
}

func (s *Store) ClearToken() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(authBucket).Delete([]byte(TokenKey))
	})
}

// Token returns the stored token, or an empty string when none is stored or
// the token is a JWT past its expiry. Requests then go out unauthenticated.
func (s *Store) Token() (string, error) {
	token, err := s.rawToken()
	if errors.Is(err, ErrNoToken) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if claims, err := ParseClaims(token); err == nil && claims.Expired(s.now()) {
		return "", nil
	}
	return token, nil
}

// Claims reads the subject and expiry of the stored token without verifying
// its signature.
func (s *Store) Claims() (Claims, error) {
	token, err := s.rawToken()
	if err != nil {
		return Claims{}, err
	}
	return ParseClaims(token)
}

func (s *Store) rawToken() (string, error) {
	var token string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(authBucket).Get([]byte(TokenKey))
		if data == nil {
			return ErrNoToken
		}
		token = string(data)
		return nil
	})
	return token, err
}

func ParseClaims(token string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}

	var out Claims
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
