package pitch

import "testing"

func benchmarkShifter(b *testing.B, mode Mode, blockSize int) {
	s, err := NewShifter(WithMode(mode), WithBlockSize(blockSize), WithFactor(1.5))
	if err != nil {
		b.Fatal(err)
	}

	buf := make([]float64, blockSize)
	for i := range buf {
		buf[i] = 0.25
	}

	b.ResetTimer()

	for range b.N {
		s.ProcessBlock(buf, buf)
	}
}

func BenchmarkShifterResample1024(b *testing.B) { benchmarkShifter(b, ModeResample, 1024) }
func BenchmarkShifterOverlapAdd1024(b *testing.B) { benchmarkShifter(b, ModeOverlapAdd, 1024) }
func BenchmarkShifterOverlapAdd4096(b *testing.B) { benchmarkShifter(b, ModeOverlapAdd, 4096) }
