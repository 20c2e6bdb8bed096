package accounts

import (
	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-router"
)

// ProtectedRoute builds the JWT middleware that guards account endpoints.
// Validated claims are stored in router locals under the configured context
// key and propagated to the request context.
func ProtectedRoute(cfg Config, validator jwtware.TokenValidator, errorHandler router.ErrorHandler) router.MiddlewareFunc {
	return jwtware.New(jwtware.Config{
		ErrorHandler:   errorHandler,
		TokenValidator: validator,
		SigningKey: jwtware.SigningKey{
			Key:    []byte(cfg.GetSigningKey()),
			JWTAlg: cfg.GetSigningMethod(),
		},
		AuthScheme:      cfg.GetAuthScheme(),
		ContextKey:      cfg.GetContextKey(),
		TokenLookup:     cfg.GetTokenLookup(),
		ContextEnricher: ContextEnricherAdapter,
	})
}

// TokenValidatorAdapter bridges a TokenIssuer into the middleware's
// TokenValidator without an import cycle.
type TokenValidatorAdapter struct {
	Tokens TokenIssuer
}

func (a TokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	claims, err := a.Tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// MakeAuthErrorHandler builds the JSON error handler for protected routes.
// When optional is true a request without credentials continues anonymously.
func MakeAuthErrorHandler(optional bool) router.ErrorHandler {
	return func(ctx router.Context, err error) error {
		if IsMalformedError(err) {
			if optional {
				return ctx.Next()
			}
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": "authentication required",
			})
		}

		if IsTokenExpiredError(err) {
			return ctx.JSON(router.StatusUnauthorized, map[string]string{
				"error": ErrTokenExpired.Message,
			})
		}

		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": MsgInvalidToken,
		})
	}
}
