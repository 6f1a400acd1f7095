package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/priority/pkg/httpcontext"
	authUC "github.com/fastygo/priority/usecase/auth"
)

func run(t *testing.T, issuer *authUC.TokenIssuer, authorization string) (*fasthttp.RequestCtx, string) {
	t.Helper()
	var seen string
	handler := JWTAuth(issuer, nil)(func(ctx *fasthttp.RequestCtx) {
		seen = httpcontext.UserID(ctx)
		ctx.SetStatusCode(http.StatusOK)
	})

	ctx := &fasthttp.RequestCtx{}
	if authorization != "" {
		ctx.Request.Header.Set("Authorization", authorization)
	}
	handler(ctx)
	return ctx, seen
}

func TestJWTAuthAcceptsAccessToken(t *testing.T) {
	issuer := authUC.NewTokenIssuer(authUC.TokenConfig{Secret: "s", AccessTTL: time.Minute})
	token, _, err := issuer.Issue("alice", authUC.TokenTypeAccess, "jti")
	require.NoError(t, err)

	ctx, seen := run(t, issuer, "Bearer "+token)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "alice", seen)
	assert.Equal(t, "alice", string(ctx.Request.Header.Peek("X-User-ID")))

	ctx, _ = run(t, issuer, "bearer "+token)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
}

func TestJWTAuthRejects(t *testing.T) {
	issuer := authUC.NewTokenIssuer(authUC.TokenConfig{Secret: "s"})
	refresh, _, err := issuer.Issue("alice", authUC.TokenTypeRefresh, "jti")
	require.NoError(t, err)
	foreign, _, err := authUC.NewTokenIssuer(authUC.TokenConfig{Secret: "other"}).Issue("alice", authUC.TokenTypeAccess, "jti")
	require.NoError(t, err)

	cases := map[string]string{
		"missing header": "",
		"garbage":        "Bearer not-a-jwt",
		"refresh token":  "Bearer " + refresh,
		"wrong secret":   "Bearer " + foreign,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			ctx, seen := run(t, issuer, header)
			assert.Equal(t, http.StatusUnauthorized, ctx.Response.StatusCode())
			assert.Empty(t, seen)
			assert.Contains(t, string(ctx.Response.Body()), "UNAUTHORIZED")
		})
	}
}
