package reveal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEasings(t *testing.T) {
	for name, e := range easings {
		t.Run(name, func(t *testing.T) {
			assert.InDelta(t, 0, e(0), 1e-9)
			assert.InDelta(t, 1, e(1), 1e-9)

			prev := e(0)
			for i := 1; i <= 100; i++ {
				v := e(float64(i) / 100)
				assert.GreaterOrEqual(t, v, prev-1e-12, "not monotonic at %d", i)
				prev = v
			}
		})
	}
}

func TestEasingByName(t *testing.T) {
	e, ok := EasingByName("Quint.InOut")
	assert.True(t, ok)
	assert.InDelta(t, 0.5, e(0.5), 1e-9)

	_, ok = EasingByName("bounce")
	assert.False(t, ok)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-1, 0, 1))
	assert.Equal(t, 1.0, Clamp(2, 0, 1))
	assert.Equal(t, 0.25, Clamp(0.25, 0, 1))
}

func TestLeadingZeros(t *testing.T) {
	assert.Equal(t, "007", LeadingZeros(7, 3))
	assert.Equal(t, "020", LeadingZeros(20, 3))
	assert.Equal(t, "1234", LeadingZeros(1234, 3))
}
