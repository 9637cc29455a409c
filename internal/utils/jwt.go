package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeSession = "session"
	tokenTypeState   = "state"
)

// SessionClaims are the claims of an API session token
type SessionClaims struct {
	UserID string
	Email  string
	Exp    int64
	Iat    int64
}

// StateClaims are the claims of an OAuth state parameter
type StateClaims struct {
	UserID string
	JTI    string
	Exp    time.Time
}

// JWTManager manages JWT token operations
type JWTManager struct {
	secret        []byte
	sessionExpiry time.Duration
	stateExpiry   time.Duration
	now           func() time.Time
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, sessionExpiry, stateExpiry time.Duration) *JWTManager {
	return &JWTManager{
		secret:        []byte(secret),
		sessionExpiry: sessionExpiry,
		stateExpiry:   stateExpiry,
		now:           time.Now,
	}
}

// GenerateSessionToken generates an API session token for a user
func (j *JWTManager) GenerateSessionToken(userID, email string) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"type":    tokenTypeSession,
		"exp":     now.Add(j.sessionExpiry).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateSessionToken validates a session token and returns claims
func (j *JWTManager) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims, err := j.parse(tokenString, tokenTypeSession)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user_id in token")
	}

	email, _ := claims["email"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in token")
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid iat in token")
	}

	return &SessionClaims{
		UserID: userID,
		Email:  email,
		Exp:    int64(exp),
		Iat:    int64(iat),
	}, nil
}

// SessionExpiry returns the session token lifetime in seconds
func (j *JWTManager) SessionExpiry() int {
	return int(j.sessionExpiry.Seconds())
}

// GenerateState signs an OAuth state bound to a user. Each state carries a unique jti
// so it can be consumed once.
func (j *JWTManager) GenerateState(userID string) (string, *StateClaims, error) {
	now := j.now()
	sc := &StateClaims{
		UserID: userID,
		JTI:    uuid.New().String(),
		Exp:    now.Add(j.stateExpiry),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": sc.UserID,
		"jti":     sc.JTI,
		"type":    tokenTypeState,
		"exp":     sc.Exp.Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(j.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign state: %w", err)
	}

	return tokenString, sc, nil
}

// ValidateState verifies an OAuth state and returns its claims
func (j *JWTManager) ValidateState(tokenString string) (*StateClaims, error) {
	claims, err := j.parse(tokenString, tokenTypeState)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid user_id in state")
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, fmt.Errorf("invalid jti in state")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("invalid exp in state")
	}

	return &StateClaims{
		UserID: userID,
		JTI:    jti,
		Exp:    time.Unix(int64(exp), 0),
	}, nil
}

func (j *JWTManager) parse(tokenString, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithTimeFunc(j.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims["type"] != tokenType {
		return nil, fmt.Errorf("invalid token type")
	}

	return claims, nil
}
