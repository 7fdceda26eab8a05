package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridNavigator(t *testing.T) {
	tests := []struct {
		name  string
		dir   Direction
		steps int
		want  MapCoordinate
	}{
		{"none is a no-op", None, 5, At(3, 4)},
		{"north one", North, 1, At(3, 3)},
		{"south three", South, 3, At(3, 7)},
		{"east two", East, 2, At(5, 4)},
		{"north-west two", NorthWest, 2, At(1, 2)},
		{"south-east negative steps", SouthEast, -1, At(2, 3)},
	}

	nav := NewGridNavigator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, info, ok := nav.Navigate(tt.dir, At(3, 4), tt.steps)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, NavigationInfo{}, info)
		})
	}
}

func TestIsoStaggeredNavigator(t *testing.T) {
	tests := []struct {
		name   string
		origin MapCoordinate
		dir    Direction
		steps  int
		want   MapCoordinate
	}{
		{"even row north-east", At(0, 0), NorthEast, 1, At(0, -1)},
		{"odd row north-east", At(0, 1), NorthEast, 1, At(1, 0)},
		{"even row north-west", At(0, 0), NorthWest, 1, At(-1, -1)},
		{"odd row north-west", At(0, 1), NorthWest, 1, At(0, 0)},
		{"even row south-east twice", At(0, 0), SouthEast, 2, At(1, 2)},
		{"odd row south-west three", At(2, 1), SouthWest, 3, At(1, 4)},
		{"north crosses two rows", At(2, 4), North, 1, At(2, 2)},
		{"east stays on row", At(2, 3), East, 2, At(4, 3)},
		{"negative row parity", At(0, -1), SouthEast, 1, At(1, 0)},
	}

	nav := NewIsoStaggeredNavigator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := nav.NavigateTo(tt.dir, tt.origin, tt.steps)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsoStaggeredStepsMatchRepeatedSingleSteps(t *testing.T) {
	nav := NewIsoStaggeredNavigator()
	for _, d := range All {
		for _, origin := range []MapCoordinate{At(0, 0), At(3, 1), At(-2, -3), At(5, 8)} {
			cur := origin
			for i := 1; i <= 5; i++ {
				cur, _ = nav.NavigateTo(d, cur, 1)
				direct, _ := nav.NavigateTo(d, origin, i)
				assert.Equal(t, cur, direct, "dir=%s origin=%s steps=%d", d, origin, i)
			}
		}
	}
}

func TestRotatedNavigator(t *testing.T) {
	rot, err := NewRotated(NewGridNavigator(), 2)
	require.NoError(t, err)

	got, ok := rot.NavigateTo(North, At(0, 0), 1)
	assert.True(t, ok)
	assert.Equal(t, At(1, 0), got, "north rotated 90 degrees clockwise moves east")

	got, _ = rot.NavigateTo(NorthWest, At(0, 0), 1)
	assert.Equal(t, At(1, -1), got)

	mirror, err := NewRotated(NewGridNavigator(), -4)
	require.NoError(t, err)
	got, _ = mirror.NavigateTo(East, At(0, 0), 3)
	assert.Equal(t, At(-3, 0), got)

	_, err = NewRotated(nil, 1)
	assert.ErrorIs(t, err, ErrNilNavigator)
}

func TestUndefinedDirectionPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewGridNavigator().Navigate(Direction(42), At(0, 0), 1)
	})
	assert.Panics(t, func() {
		NewIsoStaggeredNavigator().Navigate(Direction(-1), At(0, 0), 1)
	})
}

func TestDirectionHelpers(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, SouthWest, NorthEast.Opposite())
	assert.Equal(t, None, None.Opposite())
	assert.Equal(t, NorthWest, North.Rotate(-1))
	assert.True(t, West.IsCardinal())
	assert.True(t, SouthEast.IsDiagonal())
	assert.False(t, None.IsCardinal())

	for _, d := range All {
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	_, err := ParseDirection("up")
	assert.Error(t, err)
}

func TestContinuousCoordinate(t *testing.T) {
	c := AtF(2.6, -1.4)
	assert.Equal(t, At(3, -1), c.Normalize())
	assert.Equal(t, At(2, -2), c.Floor())
	assert.Equal(t, AtF(3.6, -0.4), c.Add(AtF(1, 1)))
}
