package chaos

import "testing"

func BenchmarkPickStatus(b *testing.B) {
	inj := NewInjector()
	b.ReportAllocs()
	for b.Loop() {
		inj.PickStatus(50)
	}
}

func BenchmarkPickStatus_Seeded(b *testing.B) {
	inj := NewInjector(WithSource(NewSeededSource(1)))
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			inj.PickStatus(50)
		}
	})
}
