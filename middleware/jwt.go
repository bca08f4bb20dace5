package middleware

import (
	"academy/config"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// GenerateJWT generates a JWT token for the user
func GenerateJWT(userID uint, name, role, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"userId": userID,
		"name":   name,
		"role":   role,
		"email":  email,
		"iat":    now.Unix(),
		"exp":    now.Add(config.AppConfig.JWTTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTKey))
}

var errInvalidToken = errors.New("invalid token payload")

// parseBearer extracts user id and role from an Authorization header value
func parseBearer(authHeader string) (uint, string, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, "", errors.New("invalid Authorization header format")
	}
	tokenString := strings.TrimSpace(authHeader[len("Bearer "):])

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.AppConfig.JWTKey), nil
	})
	if err != nil || !token.Valid {
		return 0, "", errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errInvalidToken
	}
	// JWT numbers decode as float64
	rawID, ok := claims["userId"].(float64)
	if !ok || rawID <= 0 {
		return 0, "", errInvalidToken
	}
	role, _ := claims["role"].(string)
	return uint(rawID), role, nil
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}

	userID, role, err := parseBearer(authHeader)
	if err != nil {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid or expired token", nil)
	}

	c.Locals("userId", userID)
	c.Locals("role", role)
	return c.Next()
}

// OptionalJWT sets the user locals when a valid token is sent and never rejects the request
func OptionalJWT(c *fiber.Ctx) error {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if userID, role, err := parseBearer(authHeader); err == nil {
			c.Locals("userId", userID)
			c.Locals("role", role)
		}
	}
	return c.Next()
}

// CurrentUserID returns the authenticated user id, if any
func CurrentUserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("userId").(uint)
	return id, ok && id > 0
}
