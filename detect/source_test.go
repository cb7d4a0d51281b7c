package detect

import (
	"context"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONLSource(t *testing.T) {
	stream := `{"frame": 1, "detections": [{"bbox": [10, 20, 50, 120], "class_id": 0, "confidence": 0.91, "track_id": 4}]}

{"frame": 3, "detections": []}
{"detections": [{"bbox": [0, 0, 5, 5], "class_id": 1, "confidence": 0.5}]}
`
	src := NewJSONLSource(strings.NewReader(stream))
	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.Index)
	require.Len(t, f.Detections, 1)

	det := f.Detections[0]
	require.Equal(t, Box{XMin: 10, YMin: 20, XMax: 50, YMax: 120}, det.Box)
	require.Equal(t, 0, det.Class)
	require.InDelta(t, 0.91, det.Confidence, 1e-9)
	require.NotNil(t, det.TrackHint)
	require.Equal(t, int64(4), *det.TrackHint)

	x, y := det.Box.BottomCenter()
	require.Equal(t, 30.0, x)
	require.Equal(t, 120.0, y)

	f, err = src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, f.Index)
	require.Empty(t, f.Detections)

	f, err = src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, f.Index)
	require.Nil(t, f.Detections[0].TrackHint)

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestJSONLSourceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewJSONLSource(strings.NewReader(`not json`)).Next(ctx)
	require.ErrorContains(t, err, "line 1")

	src := NewJSONLSource(strings.NewReader("{\"frame\": 2}\n{\"frame\": 2}\n"))
	_, err = src.Next(ctx)
	require.NoError(t, err)
	_, err = src.Next(ctx)
	require.ErrorContains(t, err, "is not after frame")

	_, err = NewJSONLSource(strings.NewReader(`{"frame": -1}`)).Next(ctx)
	require.ErrorContains(t, err, "negative")
}

func TestJSONLSourceZeroBased(t *testing.T) {
	stream := `{"frame": 0, "detections": [{"bbox": [10, 20, 50, 120], "class_id": 0, "confidence": 0.9}]}
{"frame": 1, "detections": []}
{"detections": []}
`
	src := NewJSONLSource(strings.NewReader(stream))
	ctx := context.Background()

	for _, want := range []int{0, 1, 2} {
		f, err := src.Next(ctx)
		require.NoError(t, err)
		require.Equal(t, want, f.Index)
	}

	_, err := src.Next(ctx)
	require.ErrorIs(t, err, io.EOF)
}

func TestJSONLSourceSkipsMalformedBoxes(t *testing.T) {
	stream := `{"frame": 1, "detections": [{"bbox": [10, 20, 50], "class_id": 0, "confidence": 0.9}, {"bbox": [10, 20, 50, 120], "class_id": 2, "confidence": 0.8}, {"bbox": [], "class_id": 0, "confidence": 0.7}]}
{"frame": 2, "detections": [{"bbox": [0, 0, 5, 5], "class_id": 1, "confidence": 0.5}]}
`
	src := NewJSONLSource(strings.NewReader(stream))
	ctx := context.Background()

	f, err := src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.Index)
	require.Equal(t, 2, f.Malformed)
	require.Len(t, f.Detections, 1)
	require.Equal(t, Box{XMin: 10, YMin: 20, XMax: 50, YMax: 120}, f.Detections[0].Box)
	require.Equal(t, 2, f.Detections[0].Class)

	f, err = src.Next(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, f.Index)
	require.Zero(t, f.Malformed)
	require.Len(t, f.Detections, 1)
}

func TestValidBBox(t *testing.T) {
	require.True(t, validBBox([]float64{0, 0, 1, 1}))
	require.False(t, validBBox([]float64{0, 0, 1}))
	require.False(t, validBBox(nil))
	require.False(t, validBBox([]float64{0, 0, math.NaN(), 1}))
	require.False(t, validBBox([]float64{math.Inf(1), 0, 1, 1}))
}

func TestSliceSourceCancelled(t *testing.T) {
	src := NewSliceSource([]Frame{{Index: 1}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
