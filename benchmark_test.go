package snowid

import "testing"

func BenchmarkNext(b *testing.B) {
	gen, _ := New(1, 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		gen.Next()
	}
}

func BenchmarkNext_Parallel(b *testing.B) {
	gen, _ := New(1, 0)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			gen.Next()
		}
	})
}

func BenchmarkParse(b *testing.B) {
	gen, _ := New(1, 0)
	id, _ := gen.Next()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(id)
	}
}

func BenchmarkUUID(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		UUID()
	}
}
