package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Service validates bearer tokens issued by the account service. Both sides
// share the HMAC secret. GenerateToken exists for local tooling and tests.
type Service struct {
	secret []byte
	ttl    time.Duration
	issuer string
	leeway time.Duration
}

type Option func(*Service)

// WithIssuer stamps generated tokens with iss and rejects tokens from any
// other issuer.
func WithIssuer(iss string) Option { return func(s *Service) { s.issuer = iss } }

// WithLeeway tolerates clock skew between this service and the issuer.
func WithLeeway(d time.Duration) Option { return func(s *Service) { s.leeway = d } }

type Claims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration, opts ...Option) *Service {
	s := &Service{secret: []byte(secret), ttl: ttl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) GenerateToken(userID int64, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    s.issuer,
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken accepts only HS256 tokens that carry a positive user id.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	parserOpts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithLeeway(s.leeway),
	}
	if s.issuer != "" {
		parserOpts = append(parserOpts, jwtlib.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	}, parserOpts...)
	if err != nil || !token.Valid || claims.UserID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
