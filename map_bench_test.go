package slotmap

import (
	"strconv"
	"testing"
)

func benchKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "key-" + strconv.Itoa(i)
	}
	return keys
}

func BenchmarkMapAdd(b *testing.B) {
	keys := benchKeys(1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := NewMap[string, int](WithCapacity[string](len(keys)))
		for j, k := range keys {
			m.Add(k, j)
		}
	}
}

func BenchmarkMapFind(b *testing.B) {
	keys := benchKeys(1024)
	m := NewMap[string, int]()
	for j, k := range keys {
		m.Add(k, j)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if m.Find(keys[i&1023]) == nil {
			b.Fatal("missing key")
		}
	}
}

func BenchmarkMapFindByHash(b *testing.B) {
	keys := benchKeys(1024)
	m := NewMap[string, int]()
	for j, k := range keys {
		m.Add(k, j)
	}
	hashes := make([]uint32, len(keys))
	for j, k := range keys {
		hashes[j] = m.KeyFuncs().Hash(k)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i & 1023
		k := keys[j]
		if m.FindByHash(hashes[j], func(other string) bool { return other == k }) == nil {
			b.Fatal("missing key")
		}
	}
}

func BenchmarkMapChurn(b *testing.B) {
	m := NewMap[int, int]()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Add(i&4095, i)
		if i&7 == 0 {
			m.Remove((i - 1024) & 4095)
		}
	}
}

func BenchmarkSetAdd(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewSet[int](WithCapacity[int](1024))
		for j := 0; j < 1024; j++ {
			s.Add(j)
		}
	}
}
