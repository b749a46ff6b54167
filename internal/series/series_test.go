package series

import (
	"math"
	"testing"
)

func TestBatchShape(t *testing.T) {
	b := Batch{
		{{1, 2, 3}, {4, 5, 6}},
		{{7, 8, 9}, {10, 11, 12}},
	}
	if got := b.NCases(); got != 2 {
		t.Errorf("NCases = %d, want 2", got)
	}
	if got := b.NChannels(); got != 2 {
		t.Errorf("NChannels = %d, want 2", got)
	}
	if got := b.MinTimepoints(); got != 3 {
		t.Errorf("MinTimepoints = %d, want 3", got)
	}
	if !b.EqualLength() {
		t.Error("EqualLength = false, want true")
	}
}

func TestVariableLengthBatch(t *testing.T) {
	b := Batch{
		{{1, 2, 3, 4, 5}},
		{{1, 2, 3}},
	}
	if got := b.MinTimepoints(); got != 3 {
		t.Errorf("MinTimepoints = %d, want 3", got)
	}
	if b.EqualLength() {
		t.Error("EqualLength = true, want false")
	}
	if err := b.Validate(); err != nil {
		t.Errorf("variable-length batch should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       Batch
		wantErr bool
	}{
		{"valid", Batch{{{1, 2}}}, false},
		{"empty batch", Batch{}, true},
		{"no channels", Batch{{}}, true},
		{"ragged channels", Batch{{{1, 2}}, {{1, 2}, {3, 4}}}, true},
		{"empty channel", Batch{{{1, 2}, {}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEmptyBatchAccessors(t *testing.T) {
	var b Batch
	if b.NChannels() != 0 {
		t.Error("empty batch NChannels should be 0")
	}
	if b.MinTimepoints() != 0 {
		t.Error("empty batch MinTimepoints should be 0")
	}
	if !b.EqualLength() {
		t.Error("empty batch is trivially equal length")
	}
}

func TestRawTransformIsIdentity(t *testing.T) {
	b := Batch{{{1, 2, 3}}}
	got := Raw().Apply(b)
	if got.NCases() != 1 || len(got[0][0]) != 3 {
		t.Fatalf("raw view changed shape: %v", got)
	}
	// Identity view shares the input's backing storage.
	b[0][0][0] = 99
	if got[0][0][0] != 99 {
		t.Error("raw view should not copy the batch")
	}
}

func TestDifferenceTransform(t *testing.T) {
	b := Batch{{{1, 4, 9, 16}}}
	got := Difference().Apply(b)
	want := []float64{3, 5, 7}
	if len(got[0][0]) != len(want) {
		t.Fatalf("diff length = %d, want %d", len(got[0][0]), len(want))
	}
	for i, v := range want {
		if math.Abs(got[0][0][i]-v) > 1e-12 {
			t.Errorf("diff[%d] = %v, want %v", i, got[0][0][i], v)
		}
	}
	// The input is never touched.
	if b[0][0][1] != 4 {
		t.Error("diff view mutated its input")
	}
}

func TestDifferenceOfSinglePoint(t *testing.T) {
	got := Difference().Apply(Batch{{{5}}})
	if len(got[0][0]) != 1 || got[0][0][0] != 0 {
		t.Errorf("diff of single point = %v, want [0]", got[0][0])
	}
}
