package serverutils

import (
	"fmt"

	"market-assist-be/internal/entity"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ResolveOwner identifies who is connecting. A valid JWT (query param `token`
// for browsers, Authorization header for tooling) yields an authenticated
// owner; no token yields an anonymous one. A token that is present but
// invalid is rejected rather than downgraded to anonymous.
func ResolveOwner(ctx *fiber.Ctx, secret string) (entity.Owner, error) {
	tokenStr := ctx.Query("token")
	if tokenStr == "" {
		authHeader := ctx.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}

	if tokenStr == "" {
		anonId := ctx.Query("anon_id")
		if anonId == "" || len(anonId) > 64 {
			anonId = "anon-" + uuid.NewString()
		}
		return entity.NewAnonymousOwner(anonId), nil
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return entity.Owner{}, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return entity.Owner{}, fmt.Errorf("invalid token claims")
	}

	userIdStr, ok := claims["user_id"].(string)
	if !ok {
		return entity.Owner{}, fmt.Errorf("token missing user_id")
	}

	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return entity.Owner{}, fmt.Errorf("invalid user id in token: %w", err)
	}

	return entity.NewAuthenticatedOwner(userId), nil
}
