package security

import (
	"fmt"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/golang-jwt/jwt/v5"
)

// TokenService issues and validates HS256 bearer tokens
type TokenService struct {
	secretKey  []byte
	tokenTTL   time.Duration
	rolesClaim string
}

// NewTokenService creates a token service. rolesClaim names the claim
// holding the role list and defaults to "roles".
func NewTokenService(secretKey string, tokenTTL time.Duration, rolesClaim string) *TokenService {
	if rolesClaim == "" {
		rolesClaim = "roles"
	}
	return &TokenService{
		secretKey:  []byte(secretKey),
		tokenTTL:   tokenTTL,
		rolesClaim: rolesClaim,
	}
}

// Issue signs a token for user
func (s *TokenService) Issue(user *User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{}
	for k, v := range user.Claims {
		claims[k] = v
	}
	claims["sub"] = user.ID
	claims["email"] = user.Email
	claims[s.rolesClaim] = user.Roles
	claims["iat"] = now.Unix()
	if s.tokenTTL != 0 {
		claims["exp"] = now.Add(s.tokenTTL).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// UserFromToken validates a bearer token and returns its user. The
// "Bearer " prefix is optional.
func (s *TokenService) UserFromToken(tokenString string) (*User, error) {
	if len(tokenString) > 7 && (tokenString[:7] == "Bearer " || tokenString[:7] == "bearer ") {
		tokenString = tokenString[7:]
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, apierr.AccessDenied("Invalid token: " + err.Error())
	}
	if !token.Valid {
		return nil, apierr.AccessDenied("Invalid token.")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apierr.AccessDenied("Invalid token claims.")
	}

	user := &User{Claims: make(map[string]interface{}, len(claims))}
	for k, v := range claims {
		switch k {
		case "sub", "user_id":
			if id, ok := v.(string); ok && user.ID == "" {
				user.ID = id
			}
		case "email":
			user.Email, _ = v.(string)
		case s.rolesClaim:
			user.Roles = roles(v)
		default:
			user.Claims[k] = v
		}
	}
	return user, nil
}

func roles(v interface{}) []string {
	switch r := v.(type) {
	case []string:
		return r
	case []interface{}:
		out := make([]string, 0, len(r))
		for _, role := range r {
			if s, ok := role.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{r}
	}
	return nil
}
