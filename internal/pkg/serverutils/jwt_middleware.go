package serverutils

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// JwtMiddleware puts the "user_id" claim of a valid bearer token into
// ctx.Locals("user_id"). With required=false a missing header passes
// through anonymously, but a bad token is still rejected. An empty secret
// disables the check.
func JwtMiddleware(secret string, required bool) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Next()
		}

		authHeader := ctx.Get("Authorization")
		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			if !required && authHeader == "" {
				return ctx.Next()
			}
			return fiber.NewError(fiber.StatusUnauthorized, "Missing token")
		}
		tokenStr := authHeader[7:]

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid claims")
		}

		if uid, ok := claims["user_id"]; ok && uid != nil {
			ctx.Locals("user_id", fmt.Sprint(uid))
		}
		return ctx.Next()
	}
}

// UserID returns the authenticated user, or "" for anonymous requests.
func UserID(ctx *fiber.Ctx) string {
	uid, _ := ctx.Locals("user_id").(string)
	return uid
}
