package player

import "testing"

func TestInterleavedToFrames(t *testing.T) {
	mono := interleavedToFrames([]int16{16384, -32768}, 1)
	if len(mono) != 2 {
		t.Fatalf("mono frames = %d, want 2", len(mono))
	}
	if mono[0] != [2]float64{0.5, 0.5} {
		t.Errorf("mono[0] = %v, want [0.5 0.5]", mono[0])
	}
	if mono[1] != [2]float64{-1, -1} {
		t.Errorf("mono[1] = %v, want [-1 -1]", mono[1])
	}

	stereo := interleavedToFrames([]int16{16384, -16384, 0}, 2)
	if len(stereo) != 1 {
		t.Fatalf("stereo frames = %d, want 1 (trailing half frame dropped)", len(stereo))
	}
	if stereo[0] != [2]float64{0.5, -0.5} {
		t.Errorf("stereo[0] = %v, want [0.5 -0.5]", stereo[0])
	}
}

func TestLE16ToFrames(t *testing.T) {
	// 0x4000 = 16384, 0xC000 = -16384
	frames := le16ToFrames([]byte{0x00, 0x40, 0x00, 0xC0}, 2)
	if len(frames) != 1 || frames[0] != [2]float64{0.5, -0.5} {
		t.Errorf("le16ToFrames() = %v, want [[0.5 -0.5]]", frames)
	}
}

func TestInt24(t *testing.T) {
	tests := []struct {
		in   []byte
		want int32
	}{
		{[]byte{0x00, 0x00, 0x40}, 0x400000},
		{[]byte{0xFF, 0xFF, 0xFF}, -1},
		{[]byte{0x00, 0x00, 0x80}, -0x800000},
	}
	for _, tt := range tests {
		if got := int24(tt.in); got != tt.want {
			t.Errorf("int24(%x) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
