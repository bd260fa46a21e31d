package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTimeout_AddsDeadline(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), deadline, 100*time.Millisecond)
}

func TestWithTimeout_KeepsEarlierParentDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer parentCancel()
	parentDeadline, _ := parent.Deadline()

	ctx, cancel := WithTimeout(parent, time.Minute)
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.Equal(t, parentDeadline, deadline)
}

func TestWithTimeout_ShortensLaterParentDeadline(t *testing.T) {
	parent, parentCancel := context.WithTimeout(context.Background(), time.Hour)
	defer parentCancel()

	ctx, cancel := WithTimeout(parent, time.Second)
	defer cancel()

	deadline, _ := ctx.Deadline()
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}
