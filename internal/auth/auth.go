package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredential = errors.New("invalid credential")

// Identity is the verified caller: a stable user id plus an optional
// display name hint carried in the credential.
type Identity struct {
	ID              string
	DisplayNameHint string
}

// Verifier checks the opaque credential presented in the AUTH handshake.
type Verifier interface {
	Verify(ctx context.Context, credential string) (Identity, error)
}

// JWTVerifier accepts HS256 tokens signed with the shared secret. The
// subject claim is the user id; the name claim, when present, seeds the
// display name.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, credential string) (Identity, error) {
	tok, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidCredential
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidCredential
	}
	sub, _ := claims.GetSubject()
	if sub == "" {
		return Identity{}, ErrInvalidCredential
	}
	name, _ := claims["name"].(string)
	return Identity{ID: sub, DisplayNameHint: name}, nil
}

// DevVerifier trusts the credential as-is, for local runs without an
// identity provider. Credentials of the form "id:name" carry a name hint.
type DevVerifier struct{}

func (DevVerifier) Verify(_ context.Context, credential string) (Identity, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Identity{}, ErrInvalidCredential
	}
	id, name, _ := strings.Cut(credential, ":")
	return Identity{ID: id, DisplayNameHint: name}, nil
}
