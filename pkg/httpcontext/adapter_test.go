package httpcontext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/priority/pkg/logger"
)

func TestAttachPropagatesRequestID(t *testing.T) {
	var reqCtx fasthttp.RequestCtx
	reqCtx.Request.Header.Set(HeaderRequestID, "req-42")
	reqCtx.Request.Header.SetUserAgent("tests")
	reqCtx.SetUserValue(UserIDValue, "alice")

	ctx, cancel := NewAdapter(time.Second).Attach(&reqCtx)
	defer cancel()

	assert.Equal(t, "req-42", appLogger.RequestID(ctx))
	assert.Equal(t, "alice", appLogger.UserID(ctx))
	assert.Equal(t, "tests", ctx.Value(KeyUserAgent))
	assert.Equal(t, "req-42", string(reqCtx.Response.Header.Peek(HeaderRequestID)))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestRequestIDGeneratedOnce(t *testing.T) {
	var reqCtx fasthttp.RequestCtx

	first := RequestID(&reqCtx)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, RequestID(&reqCtx))
	assert.Empty(t, UserID(&reqCtx))
}
