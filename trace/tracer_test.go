// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisabledTracer(t *testing.T) {
	require := require.New(t)

	tr, err := New(&Config{AppName: "test"})
	require.NoError(err)
	_, ok := tr.(*noOpTracer)
	require.True(ok)

	ctx, span := tr.Start(context.Background(), "span")
	require.NotNil(ctx)
	require.False(span.IsRecording())
	span.End()
	require.NoError(tr.Close())
}

func TestEnabledTracer(t *testing.T) {
	require := require.New(t)

	tr, err := New(&Config{
		Enabled:         true,
		Endpoint:        "http://127.0.0.1:1/api/v2/spans",
		TraceSampleRate: 1,
		AppName:         "test",
	})
	require.NoError(err)

	_, span := tr.Start(context.Background(), "span")
	require.True(span.IsRecording())
	span.End()
	// Export to the unreachable collector fails asynchronously.
	_ = tr.Close()
}
