package jwt

import (
	"errors"
	"time"

	"lockedin/internal/domain/user"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenTypeAccess = "access"

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims are issued by the account service. ProfileID is the job seeker or
// recruiter profile of the account, empty for admins.
type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	ProfileID uuid.UUID `json:"profile_id,omitempty"`
	TokenType string    `json:"token_type"`

	jwtlib.RegisteredClaims
}

// Actor turns verified claims into the actor that handlers pass down.
func (c Claims) Actor() (user.Actor, error) {
	role, err := user.ParseRole(c.Role, c.ProfileID)
	if err != nil {
		return user.Actor{}, err
	}
	return user.UserActor(c.UserID, role), nil
}

type Service interface {
	ValidateToken(tokenString string) (Claims, error)
}

type HMACService struct {
	accessSecret []byte
	now          func() time.Time
}

func NewHMACService(accessSecret string) *HMACService {
	return &HMACService{
		accessSecret: []byte(accessSecret),
		now:          time.Now,
	}
}

func (s *HMACService) ValidateToken(tokenString string) (Claims, error) {
	if len(s.accessSecret) == 0 {
		return Claims{}, ErrTokenInvalid
	}

	p := jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
		jwtlib.WithExpirationRequired(),
	)

	var c Claims
	tok, err := p.ParseWithClaims(tokenString, &c, func(token *jwtlib.Token) (any, error) {
		return s.accessSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenInvalid
	}
	if tok == nil || !tok.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if c.TokenType != TokenTypeAccess || c.UserID == uuid.Nil {
		return Claims{}, ErrTokenInvalid
	}
	return c, nil
}

// Sign issues an access token. The API never logs anyone in; this exists for
// local tooling and tests.
func (s *HMACService) Sign(userID uuid.UUID, role string, profileID uuid.UUID, ttl time.Duration) (string, error) {
	if len(s.accessSecret) == 0 || ttl <= 0 {
		return "", ErrTokenInvalid
	}
	now := s.now().UTC()
	c := Claims{
		UserID:    userID,
		Role:      role,
		ProfileID: profileID,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			Subject:   userID.String(),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, c).SignedString(s.accessSecret)
}
