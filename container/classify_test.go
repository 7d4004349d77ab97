package container

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write(append([]byte("UnityWebData1.0\x00"), 0, 0, 0, 0))
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	tests := []struct {
		name string
		file string
		data []byte
		want Kind
	}{
		{name: "bundle", file: "a.unity3d", data: []byte("UnityFS\x00\x00\x00\x00\x07"), want: KindBundle},
		{name: "block container", file: "00.block", data: []byte("UnityFS\x00\x00\x00\x00\x07"), want: KindBlockContainer},
		{name: "block extension upper case", file: "00.BLOCK", data: []byte("UnityFS\x00"), want: KindBlockContainer},
		{name: "web", file: "data.unityweb", data: []byte("UnityWebData1.0\x00\x20\x00\x00\x00"), want: KindWebArchive},
		{name: "gzip web", file: "data.unityweb", data: gz.Bytes(), want: KindWebArchive},
		{name: "mhy0", file: "x", data: []byte("mhy0\x10\x00\x00\x00"), want: KindMhy0},
		{name: "blk signature", file: "x.bin", data: []byte("blk\x00rest"), want: KindBlockEncrypted},
		{name: "blk extension", file: "31049740.blk", data: []byte("garbage"), want: KindBlockEncrypted},
		{name: "unrecognized", file: "level0", data: []byte("\x00\x00\x00\x00"), want: KindUnrecognized},
		{name: "empty", file: "empty", data: nil, want: KindUnrecognized},
		{name: "gzip non web", file: "x.gz", data: []byte{0x1f, 0x8b, 0x08, 0x00}, want: KindUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Classify(bytes.NewReader(tt.data), int64(len(tt.data)), tt.file)
			if got != tt.want {
				t.Fatalf("Classify=%s, want %s", got, tt.want)
			}
		})
	}
}

func TestKindText(t *testing.T) {
	t.Parallel()

	for k := KindUnrecognized; k <= KindMhy0; k++ {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d): %v", k, err)
		}

		var back Kind
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%s): %v", text, err)
		}
		if back != k {
			t.Fatalf("round trip %s=%s", k, back)
		}
	}

	var k Kind
	if err := k.UnmarshalText([]byte("zip")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
