package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const TokenExp = time.Hour * 24

var ErrInvalidToken = errors.New("invalid token")

// Actor is the authenticated caller every decision is attributed to.
// There is no ambient "current admin": handlers thread the actor ID
// explicitly into the engine.
type Actor struct {
	ID   uuid.UUID
	Role string
}

type Claims struct {
	jwt.RegisteredClaims
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`
}

func GenerateToken(secret []byte, actor Actor) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenExp)),
		},
		ActorID: actor.ID.String(),
		Role:    actor.Role,
	})

	return token.SignedString(secret)
}

func ParseToken(secret []byte, tokenString string) (Actor, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	actorID, err := uuid.Parse(claims.ActorID)
	if err != nil {
		return Actor{}, ErrInvalidToken
	}

	return Actor{ID: actorID, Role: claims.Role}, nil
}
