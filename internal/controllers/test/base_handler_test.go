package controllers_test

import (
	"context"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/controllers"
	"github.com/bionicotaku/lingo-services-course/internal/metadata"

	kratosmd "github.com/go-kratos/kratos/v2/metadata"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBaseHandlerExtractMetadata(t *testing.T) {
	userID := uuid.New()
	md := kratosmd.Metadata{}
	md.Set("x-md-global-user-id", userID.String())
	md.Set("x-md-idempotency-key", "req-456")
	ctx := kratosmd.NewServerContext(context.Background(), md)

	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{})
	meta := handler.ExtractMetadata(ctx)
	require.Equal(t, userID.String(), meta.UserID)
	require.Equal(t, "req-456", meta.IdempotencyKey)
	require.Equal(t, userID, meta.Principal())

	stored, ok := metadata.FromContext(metadata.Inject(ctx, meta))
	require.True(t, ok)
	require.Equal(t, meta, stored)
}

func TestMetadataPrincipalRejectsMalformedUserID(t *testing.T) {
	require.Equal(t, uuid.Nil, metadata.HandlerMetadata{UserID: "user-123"}.Principal())
	require.Equal(t, uuid.Nil, metadata.HandlerMetadata{}.Principal())
	require.Equal(t, uuid.Nil, metadata.FromServerContext(context.Background()).Principal())
}

func TestBaseHandlerWithTimeout(t *testing.T) {
	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{Command: 200 * time.Millisecond})
	ctx, cancel := handler.WithTimeout(context.Background(), controllers.HandlerTypeCommand)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	remaining := time.Until(deadline)
	require.True(t, remaining > 150*time.Millisecond && remaining <= 200*time.Millisecond, "remaining=%v", remaining)

	queryCtx, cancelQuery := handler.WithTimeout(context.Background(), controllers.HandlerTypeQuery)
	defer cancelQuery()
	queryDeadline, ok := queryCtx.Deadline()
	require.True(t, ok)
	require.InDelta(t, float64(200*time.Millisecond), float64(time.Until(queryDeadline)), float64(60*time.Millisecond))
}

func TestBaseHandlerUploadTimeoutOutlastsCommand(t *testing.T) {
	handler := controllers.NewBaseHandler(controllers.HandlerTimeouts{
		Command: 200 * time.Millisecond,
		Upload:  time.Minute,
	})
	ctx, cancel := handler.WithTimeout(context.Background(), controllers.HandlerTypeUpload)
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.Greater(t, time.Until(deadline), 50*time.Second)

	fallback := controllers.NewBaseHandler(controllers.HandlerTimeouts{Command: 200 * time.Millisecond})
	fbCtx, fbCancel := fallback.WithTimeout(context.Background(), controllers.HandlerTypeUpload)
	defer fbCancel()
	fbDeadline, ok := fbCtx.Deadline()
	require.True(t, ok)
	require.Greater(t, time.Until(fbDeadline), time.Minute)
}

func TestBaseHandlerMaxUploadBytesFallback(t *testing.T) {
	require.Equal(t, int64(512<<20), controllers.NewBaseHandler(controllers.HandlerTimeouts{}).MaxUploadBytes())
	require.Equal(t, int64(1024), controllers.NewBaseHandler(controllers.HandlerTimeouts{MaxUploadBytes: 1024}).MaxUploadBytes())
}
