package textwire_test

import (
	"testing"

	"github.com/textwire/textwire"
)

type planet struct {
	Pos               int      `textwire:"pos"`
	Name              string   `textwire:"name"`
	MassEarths        float64  `textwire:"massEarths"`
	NotableSatellites []string `textwire:"notableSatellites"`
}

var solarSystem = map[string]interface{}{
	"galaxy": "Milky Way",
	"age":    4568,
	"stars":  []string{"Sun"},
	"planets": []planet{
		{1, "Mercury", 0.055, []string{}},
		{2, "Venus", 0.815, []string{}},
		{3, "Earth", 1.0, []string{"Moon"}},
		{4, "Mars", 0.107, []string{"Phobos", "Deimos"}},
		{5, "Jupiter", 317.83, []string{"Io", "Europa", "Ganymede", "Callisto"}},
		{6, "Saturn", 95.16, []string{"Titan", "Rhea", "Enceladus"}},
		{7, "Uranus", 14.536, []string{"Oberon", "Titania", "Miranda", "Ariel", "Umbriel"}},
		{8, "Neptune", 17.15, []string{"Tritan"}},
	},
}

func BenchmarkEncodeComplexData(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, err := textwire.Marshal(solarSystem)
		if err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkDecodeComplexData(b *testing.B) {
	data, err := textwire.Marshal(solarSystem)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var v struct {
			Galaxy  string   `textwire:"galaxy"`
			Age     int      `textwire:"age"`
			Stars   []string `textwire:"stars"`
			Planets []planet `textwire:"planets"`
		}
		if err := textwire.Unmarshal(data, &v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReadObjectComplexData(b *testing.B) {
	data, err := textwire.Marshal(solarSystem)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := textwire.NewWire(textwire.WrapBytes(data)).ReadObject(); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkCompressed(b *testing.B, c textwire.Compressor) {
	data, err := textwire.Marshal(solarSystem)
	if err != nil {
		b.Fatal(err)
	}
	text := string(data)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := textwire.NewWire(textwire.NewBytes())
		w.Compression = c
		w.CompressionThreshold = 0
		if err := w.Write("doc").CompressedText(text); err != nil {
			b.FailNow()
		}
	}
}

func BenchmarkEncodeAndSnappyComplexData(b *testing.B) {
	benchmarkCompressed(b, textwire.SnappyCompressor{})
}

func BenchmarkEncodeAndZlibComplexData(b *testing.B) {
	benchmarkCompressed(b, textwire.ZlibCompressor{Level: textwire.ZlibDefaultCompression})
}

func BenchmarkEncodeAndZstdComplexData(b *testing.B) {
	benchmarkCompressed(b, textwire.ZstdCompressor{Level: textwire.ZstdDefaultCompression})
}

func BenchmarkEncodeAndLZ4ComplexData(b *testing.B) {
	benchmarkCompressed(b, textwire.LZ4Compressor{})
}

func BenchmarkLongReferenceAdd(b *testing.B) {
	w := textwire.NewWire(textwire.NewBytes())
	ref := w.Write("n").Int64ForBinding(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ref.Add(1); err != nil {
			b.Fatal(err)
		}
	}
}
