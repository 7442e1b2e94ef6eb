package pcm

import "testing"

func TestRoundTrip16(t *testing.T) {
	src := []float32{0.5, -0.5, 1.0, -1.0, 0.0}
	bytes := make([]byte, len(src)*2)
	n, err := Float32ToBytes(bytes, src, 16)
	if err != nil {
		t.Fatalf("Float32ToBytes: %v", err)
	}
	if n != len(src) {
		t.Fatalf("n = %d, want %d", n, len(src))
	}

	back := make([]float32, len(src))
	n2, err := BytesToFloat32(back, bytes, 16)
	if err != nil {
		t.Fatalf("BytesToFloat32: %v", err)
	}
	if n2 != len(src) {
		t.Fatalf("n2 = %d, want %d", n2, len(src))
	}
	for i := range src {
		if diff := back[i] - src[i]; diff > 0.001 || diff < -0.001 {
			t.Errorf("round trip[%d] = %v, want ~%v", i, back[i], src[i])
		}
	}
}

func TestBytesToFloat32ShortBufferClamped(t *testing.T) {
	src := []byte{0, 0, 0, 0, 0, 0} // 3 samples at 16-bit
	dst := make([]float32, 2)
	n, err := BytesToFloat32(dst, src, 16)
	if err != nil {
		t.Fatalf("BytesToFloat32: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2 (clamped to dst length)", n)
	}
}

func TestFloat32ToBytesClampsOutOfRange(t *testing.T) {
	src := []float32{2.0, -2.0}
	dst := make([]byte, 4)
	if _, err := Float32ToBytes(dst, src, 16); err != nil {
		t.Fatalf("Float32ToBytes: %v", err)
	}
	back := make([]float32, 2)
	if _, err := BytesToFloat32(back, dst, 16); err != nil {
		t.Fatalf("BytesToFloat32: %v", err)
	}
	if back[0] < 0.99 || back[0] > 1.0 {
		t.Errorf("back[0] = %v, want ~1.0 (clamped)", back[0])
	}
	if back[1] > -0.99 || back[1] < -1.0 {
		t.Errorf("back[1] = %v, want ~-1.0 (clamped)", back[1])
	}
}

func TestUnsupportedBitDepth(t *testing.T) {
	if _, err := BytesToFloat32(make([]float32, 1), make([]byte, 4), 12); err == nil {
		t.Error("expected error for unsupported bit depth")
	}
	if _, err := Float32ToBytes(make([]byte, 4), make([]float32, 1), 12); err == nil {
		t.Error("expected error for unsupported bit depth")
	}
}
