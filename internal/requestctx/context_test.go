package requestctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerRoundTrip(t *testing.T) {
	t.Parallel()

	require.Same(t, NoopLogger(), Logger(context.Background()))
	require.Same(t, NoopLogger(), Logger(WithLogger(context.Background(), nil)))

	logger := zap.NewExample()
	require.Same(t, logger, Logger(WithLogger(context.Background(), logger)))
}
