package embedding

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"reflect"
	"testing"
)

func TestEmbedDeterministic(t *testing.T) {
	svc := New(0)
	if svc.Dimension() != DefaultDimension {
		t.Fatalf("Dimension()=%d", svc.Dimension())
	}
	a := svc.Embed("Long-term value investment with dividends")
	b := svc.Embed("long-term VALUE investment   with dividends")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical vectors for case/space variants")
	}
	if !reflect.DeepEqual(a, svc.Embed("Long-term value investment with dividends")) {
		t.Fatalf("expected idempotent embedding")
	}
}

func TestEmbedUnitLength(t *testing.T) {
	vec := New(64).Embed("momentum momentum trend")
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("norm^2=%v, want 1", sum)
	}
}

func TestEmbedBucketMatchesHashPrefix(t *testing.T) {
	svc := New(16)
	vec := svc.Embed("dividend")
	digest := sha256.Sum256([]byte("dividend"))
	bucket := binary.BigEndian.Uint32(digest[:4]) % 16
	if vec[bucket] != 1 {
		t.Fatalf("bucket %d=%v, want 1", bucket, vec[bucket])
	}
}

func TestEmbedEmptyIsZeroVector(t *testing.T) {
	vec := New(8).Embed("   ")
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("vec[%d]=%v, want 0", i, v)
		}
	}
	if got := Cosine(vec, New(8).Embed("value")); got != 0 {
		t.Fatalf("Cosine with zero vector=%v", got)
	}
}

func TestEmbedKeywordsOrderInsensitive(t *testing.T) {
	svc := New(32)
	a := svc.EmbedKeywords([]string{"value", "quality", "value"})
	b := svc.EmbedKeywords([]string{"quality", "value"})
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected keyword embeddings to ignore order and duplicates")
	}
}

func TestCosine(t *testing.T) {
	svc := New(128)
	v := svc.Embed("quant factor screen")
	if got := Cosine(v, v); math.Abs(got-1) > 1e-9 {
		t.Fatalf("Cosine(v,v)=%v", got)
	}
	if got := Cosine(v, []float64{1}); got != 0 {
		t.Fatalf("mismatched lengths=%v", got)
	}
}
