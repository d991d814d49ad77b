package repositories_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-course/internal/models/events"
	"github.com/bionicotaku/lingo-services-course/internal/repositories"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_OrphanEventLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newPool(ctx, t)
	repo := repositories.NewOutboxRepository(pool, log.NewStdLogger(io.Discard), outboxcfg.Config{Schema: "course"})

	candidate := events.OrphanCandidate{
		EventID:    uuid.New(),
		Kind:       events.OrphanKindObject,
		Namespace:  "course-images",
		Path:       "c/1-cover.png",
		CourseID:   uuid.New(),
		Operation:  "update_image",
		DetectedAt: time.Now().UTC(),
	}
	payload, err := events.EncodeOrphanCandidate(candidate)
	require.NoError(t, err)

	require.NoError(t, repo.Enqueue(ctx, nil, repositories.OutboxMessage{
		EventID:       candidate.EventID,
		AggregateType: events.OrphanAggregateType,
		AggregateID:   candidate.AggregateID(),
		EventType:     events.OrphanDetectedEventType,
		Payload:       payload,
		Headers:       events.BuildAttributes(candidate, ""),
	}))

	count, err := repo.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	lockToken := uuid.NewString()
	now := time.Now().UTC().Add(time.Second)
	pending, err := repo.ClaimPending(ctx, now, now.Add(-time.Minute), 4, lockToken)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, events.OrphanDetectedEventType, pending[0].EventType)

	decoded, err := events.DecodeOrphanCandidate(pending[0].Payload)
	require.NoError(t, err)
	require.Equal(t, candidate.Path, decoded.Path)

	require.NoError(t, repo.MarkPublished(ctx, nil, candidate.EventID, lockToken, time.Now().UTC()))
	count, err = repo.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), count)
}
