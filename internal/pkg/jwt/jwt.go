package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingClaims = errors.New("token is missing required claims")
)

const (
	TokenTypeAccess = "access"

	// CookieName is the cookie jwtauth.TokenFromCookie reads.
	CookieName = "jwt"
)

// Claims identify the session of one authenticated employee.
type Claims struct {
	UserID     int64
	EmployeeID int64
	Role       string
	SessionID  string
}

// Service verifies access tokens for the attendance routes. Tokens are
// issued by the login flow, which lives outside this service and shares
// the signing secret.
type Service interface {
	GenerateAccessToken(claims Claims) (token string, expiresAt int64, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime time.Duration
	tokenAuth                 *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

// GenerateAccessToken signs claims into an HS256 access token. The login
// flow uses it to issue tokens this service accepts; tests use it to mint
// bearer tokens.
func (j *JWTService) GenerateAccessToken(c Claims) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpirationTime).Unix()

	claims := map[string]interface{}{
		"user_id":     strconv.FormatInt(c.UserID, 10),
		"employee_id": strconv.FormatInt(c.EmployeeID, 10),
		"role":        c.Role,
		"sid":         c.SessionID,
		"type":        TokenTypeAccess,
		"exp":         expiresAt,
	}

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// ClaimsFromMap reads the session claims of a verified access token.
// Numeric ids are accepted either as JSON numbers or as decimal strings.
func ClaimsFromMap(m map[string]interface{}) (Claims, error) {
	if t, _ := m["type"].(string); t != TokenTypeAccess {
		return Claims{}, ErrInvalidToken
	}

	employeeID, err := idClaim(m, "employee_id")
	if err != nil {
		return Claims{}, err
	}
	userID, err := idClaim(m, "user_id")
	if err != nil {
		return Claims{}, err
	}

	c := Claims{UserID: userID, EmployeeID: employeeID}
	c.Role, _ = m["role"].(string)
	c.SessionID, _ = m["sid"].(string)
	if c.SessionID == "" {
		return Claims{}, fmt.Errorf("%w: sid", ErrMissingClaims)
	}
	return c, nil
}

func idClaim(m map[string]interface{}, key string) (int64, error) {
	switch v := m[key].(type) {
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), nil
		}
	case string:
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingClaims, key)
}
