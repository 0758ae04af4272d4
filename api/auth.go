package api

import (
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"

	"github.com/smartstudentv6/smart-student-notices/core/notice"
)

// Claims represents the authorization claims the dashboard's auth service
// transmits via a JWT. This subsystem only verifies tokens; it never issues
// them outside of tests.
type Claims struct {
	jwt.StandardClaims
	IsStudent bool `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher bool `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
}

const contextClaimsKey = "claims"

// jwtMiddleware authenticates requests bearing an HS256 token issued by the
// dashboard and stores the parsed claims on the context.
func jwtMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return errJWTMissing
			}

			token, err := jwt.ParseWithClaims(
				strings.TrimPrefix(auth, "Bearer "),
				new(Claims),
				func(t *jwt.Token) (interface{}, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, errUnauthorized
					}
					return secret, nil
				},
			)
			if err != nil || !token.Valid {
				return errUnauthorized
			}
			ctx.Set(contextClaimsKey, token.Claims.(*Claims))
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*Claims); ok {
		return *claims, nil
	}
	return Claims{}, errUnauthorized
}

// contextViewer resolves the authenticated viewer identity and ledger role.
// The role may be narrowed with the `role` query param when a token carries
// both portal flags.
func contextViewer(ctx echo.Context) (string, notice.Role, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", "", err
	}
	if claims.Subject == "" {
		return "", "", errUnauthorized
	}

	role := notice.RoleLearner
	if claims.IsTeacher {
		role = notice.RoleInstructor
	}
	if qr := notice.Role(ctx.QueryParam("role")); qr.Valid() {
		switch {
		case qr == notice.RoleInstructor && !claims.IsTeacher:
			return "", "", errHTTPForbidden
		case qr == notice.RoleLearner && !claims.IsStudent && claims.IsTeacher:
			return "", "", errHTTPForbidden
		}
		role = qr
	}
	return claims.Subject, role, nil
}

// GenerateToken signs a token for the given claims; test helper.
func GenerateToken(claims *Claims, secret []byte) (string, error) {
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = time.Now().Add(10 * time.Minute).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(secret)
	if err != nil {
		return "", errTokenSigningFailed
	}
	return ss, nil
}
