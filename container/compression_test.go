package container

import (
	"errors"
	"testing"
)

func TestCheckBlocks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		blocks   []StorageBlock
		overhead int64
		avail    int64
		total    int64
		wantErr  bool
	}{
		{
			name:   "raw and lz4",
			blocks: []StorageBlock{{CompressedSize: 10, UncompressedSize: 10}, {CompressedSize: 20, UncompressedSize: 2000, Flags: uint16(CompressionLZ4)}},
			avail:  30,
			total:  2010,
		},
		{
			name:    "raw size mismatch",
			blocks:  []StorageBlock{{CompressedSize: 10, UncompressedSize: 11}},
			avail:   10,
			wantErr: true,
		},
		{
			name:     "raw with framing",
			blocks:   []StorageBlock{{CompressedSize: 50, UncompressedSize: 10}},
			overhead: 40,
			avail:    50,
			total:    10,
		},
		{
			name:     "raw beyond framing",
			blocks:   []StorageBlock{{CompressedSize: 51, UncompressedSize: 10}},
			overhead: 40,
			avail:    51,
			wantErr:  true,
		},
		{
			name:    "lz4 over ratio",
			blocks:  []StorageBlock{{CompressedSize: 4, UncompressedSize: 0xa0000000, Flags: uint16(CompressionLZ4)}},
			avail:   4,
			wantErr: true,
		},
		{
			name:    "stored past stream",
			blocks:  []StorageBlock{{CompressedSize: 10, UncompressedSize: 10}, {CompressedSize: 10, UncompressedSize: 10}},
			avail:   19,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			total, err := checkBlocks(tt.blocks, bundleBlockCompression, tt.overhead, tt.avail)
			if tt.wantErr {
				if !errors.Is(err, ErrCorrupt) {
					t.Fatalf("err=%v, want ErrCorrupt", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("checkBlocks: %v", err)
			}
			if total != tt.total {
				t.Fatalf("total=%d, want %d", total, tt.total)
			}
		})
	}
}

func TestInitialCapacity(t *testing.T) {
	t.Parallel()

	if got := initialCapacity(100); got != 100 {
		t.Fatalf("initialCapacity(100)=%d, want 100", got)
	}
	if got := initialCapacity(maxBundleDataSize); got != maxInitialData {
		t.Fatalf("initialCapacity(max)=%d, want %d", got, maxInitialData)
	}
}
