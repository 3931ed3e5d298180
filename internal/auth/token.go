// Пакет auth — выпуск и проверка подписанных токенов сессии (JWT HS256)
// и их передача через cookie.
// Проверка подписи идёт через набор ключей (jwkset + keyfunc): ключ выбирается по kid.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/model"
	"github.com/Aryan-dev-enth/certificate-manager/internal/domain/rbac"
)

// ErrInvalidToken — токен отсутствует, просрочен или подпись неверна.
var ErrInvalidToken = errors.New("невалидный или просроченный токен")

// sessionClaims — claims токена сессии.
type sessionClaims struct {
	jwt.RegisteredClaims
	Email        string `json:"email"`
	Role         string `json:"role"`
	IsSuperAdmin bool   `json:"isSuperAdmin"`
}

// TokenManager выпускает и проверяет токены сессии.
type TokenManager struct {
	secret []byte
	kid    string
	issuer string
	ttl    time.Duration
	keys   keyfunc.Keyfunc
	now    func() time.Time
}

// NewTokenManager создаёт менеджер токенов с ключом secret.
func NewTokenManager(ctx context.Context, secret []byte, issuer string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) == 0 {
		return nil, errors.New("пустой ключ подписи")
	}

	kid := keyID(secret)
	jwk, err := jwkset.NewJWKFromKey(secret, jwkset.JWKOptions{
		Marshal: jwkset.JWKMarshalOptions{Private: true},
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkset.AlgHS256,
			KID: kid,
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("создание JWK: %w", err)
	}

	storage := jwkset.NewMemoryStorage()
	if err := storage.KeyWrite(ctx, jwk); err != nil {
		return nil, fmt.Errorf("запись JWK: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("создание keyfunc: %w", err)
	}

	return &TokenManager{
		secret: secret,
		kid:    kid,
		issuer: issuer,
		ttl:    ttl,
		keys:   k,
		now:    time.Now,
	}, nil
}

// TTL возвращает время жизни токена.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue выпускает токен для пользователя. Возвращает токен и момент истечения.
func (m *TokenManager) Issue(id model.Identity) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:        id.Email,
		Role:         id.Role,
		IsSuperAdmin: id.IsSuperAdmin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header[jwkset.HeaderKID] = m.kid

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("подпись токена: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify проверяет подпись, срок действия и issuer токена и возвращает пользователя.
func (m *TokenManager) Verify(ctx context.Context, tokenString string) (*model.Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, m.keys.KeyfuncCtx(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	// keyfunc берёт единственный ключ набора и для токена без kid
	if kid, _ := token.Header[jwkset.HeaderKID].(string); kid == "" {
		return nil, fmt.Errorf("%w: нет kid в заголовке", ErrInvalidToken)
	}

	if claims.Email == "" || !rbac.IsValidRole(claims.Role) {
		return nil, fmt.Errorf("%w: неполные claims", ErrInvalidToken)
	}

	return &model.Identity{
		Email:        claims.Email,
		Role:         claims.Role,
		IsSuperAdmin: claims.IsSuperAdmin,
	}, nil
}

// keyID — стабильный идентификатор ключа по его хешу.
func keyID(secret []byte) string {
	sum := sha256.Sum256(secret)
	return hex.EncodeToString(sum[:8])
}
