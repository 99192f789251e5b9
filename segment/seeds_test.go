package segment

import (
	"errors"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedSetWithDoesNotMutate(t *testing.T) {
	base := NewSeedSet(fg(1, 1, 3))
	next := base.With(bg(5, 5, 3), fg(2, 2, 3))

	assert.Equal(t, 1, base.Len(Foreground))
	assert.Equal(t, 0, base.Len(Background))
	assert.Equal(t, 2, next.Len(Foreground))
	assert.Equal(t, 1, next.Len(Background))

	cp := next.Foreground()
	cp[0].Pos = r2.Point{X: 99, Y: 99}
	assert.Equal(t, 1.0, next.Foreground()[0].Pos.X)
}

func TestSeedSetClamp(t *testing.T) {
	tests := []struct {
		name    string
		seed    SeedPoint
		want    r2.Point
		wantErr error
	}{
		{name: "inside", seed: fg(3.5, 4, 2), want: r2.Point{X: 3.5, Y: 4}},
		{name: "left edge within brush", seed: fg(-2, 4, 5), want: r2.Point{X: 0, Y: 4}},
		{name: "corner within brush", seed: fg(12, 11, 5), want: r2.Point{X: 9, Y: 9}},
		{name: "brush misses image", seed: fg(40, 4, 5), wantErr: ErrDimensionMismatch},
		{name: "zero radius", seed: fg(1, 1, 0), wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSeedSet(tt.seed).clamp(10, 10)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Foreground()[0].Pos)
		})
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "foreground", Foreground.String())
	assert.Equal(t, "background", Background.String())
	assert.Equal(t, "class(7)", Class(7).String())
}
