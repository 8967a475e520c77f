package generation

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountSelectorRange(t *testing.T) {
	t.Parallel()

	lengths := []int{0, 1, 119, 120, 399, 400, 2499, 2500, 5000, 12000, 40000}
	for seed := int64(0); seed < 50; seed++ {
		s := NewCountSelector(8, 15, rand.New(rand.NewSource(seed)))
		for _, l := range lengths {
			n := s.Select(strings.Repeat("a", l))
			assert.GreaterOrEqual(t, n, 8, "length %d", l)
			assert.LessOrEqual(t, n, 15, "length %d", l)
		}
	}
}

func TestCountSelectorBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []int
	}{
		{"short input", "How to keep heart healthy?", []int{10, 11, 12}},
		{"medium input", strings.Repeat("b", 200), []int{9, 10, 11}},
		{"long input", strings.Repeat("c", 5000), []int{10, 11, 12}},
		{"very long input clamps", strings.Repeat("d", 40000), []int{15}},
		{"whitespace is trimmed", "   " + strings.Repeat(" ", 500) + "hi", []int{10, 11, 12}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := NewCountSelector(8, 15, rand.New(rand.NewSource(7)))
			for i := 0; i < 30; i++ {
				assert.Contains(t, tc.want, s.Select(tc.text))
			}
		})
	}
}

func TestCountSelectorRunesNotBytes(t *testing.T) {
	t.Parallel()

	// 100 runes, 300 bytes: still a short input.
	text := strings.Repeat("心", 100)
	s := NewCountSelector(8, 15, rand.New(rand.NewSource(1)))
	for i := 0; i < 20; i++ {
		assert.GreaterOrEqual(t, s.Select(text), 10)
	}
}

func TestCountSelectorDeterministic(t *testing.T) {
	t.Parallel()

	a := NewCountSelector(8, 15, rand.New(rand.NewSource(42)))
	b := NewCountSelector(8, 15, rand.New(rand.NewSource(42)))
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Select("short"), b.Select("short"))
	}
}

func TestCountSelectorConcurrent(t *testing.T) {
	t.Parallel()

	s := NewCountSelector(8, 15, rand.New(rand.NewSource(3)))
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				n := s.Select("concurrent input")
				if n < 8 || n > 15 {
					t.Errorf("count %d out of range", n)
				}
			}
		}()
	}
	wg.Wait()
}
