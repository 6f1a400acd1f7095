package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/priority/api/transport"
	"github.com/fastygo/priority/domain"
	"github.com/fastygo/priority/pkg/httpcontext"
	authUC "github.com/fastygo/priority/usecase/auth"
)

// TokenParser verifies bearer tokens.
type TokenParser interface {
	Parse(token, expectedType string) (*authUC.Claims, error)
}

// JWTAuth admits requests carrying a valid access token and exposes the
// caller as the "user_id" user value and the X-User-ID header.
func JWTAuth(tokens TokenParser, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			claims, err := tokens.Parse(tokenString, authUC.TokenTypeAccess)
			if err != nil || claims.UserID == "" {
				logger.Warn("invalid jwt token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx, "invalid or expired token")
				return
			}

			ctx.SetUserValue(httpcontext.UserIDValue, claims.UserID)
			ctx.Request.Header.Set("X-User-ID", claims.UserID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthorized), message, nil))
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	ctx.SetStatusCode(http.StatusUnauthorized)
	ctx.SetBody(body)
}
