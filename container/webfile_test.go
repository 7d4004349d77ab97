package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/woozymasta/assetmap/game"
)

// buildWebFile lays out a UnityWebData1.0 archive.
func buildWebFile(entries ...Entry) []byte {
	headLength := len(webSignature) + 4
	for _, entry := range entries {
		headLength += 12 + len(entry.Path)
	}

	out := append([]byte(nil), webSignature...)
	out = binary.LittleEndian.AppendUint32(out, uint32(headLength))
	offset := headLength
	for _, entry := range entries {
		out = binary.LittleEndian.AppendUint32(out, uint32(offset))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(entry.Data)))
		out = binary.LittleEndian.AppendUint32(out, uint32(len(entry.Path)))
		out = append(out, entry.Path...)
		offset += len(entry.Data)
	}
	for _, entry := range entries {
		out = append(out, entry.Data...)
	}

	return out
}

func TestReadWebFile(t *testing.T) {
	t.Parallel()

	bundle := packTestBundle(t, PackOptions{}, Entry{Path: "CAB-web", Data: []byte("inner")})
	web := buildWebFile(
		Entry{Path: "data.unity3d", Data: bundle},
		Entry{Path: "Il2CppData/Metadata/global-metadata.dat", Data: []byte("meta")},
	)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, _ = zw.Write(web)
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	for name, data := range map[string][]byte{"plain": web, "gzip": gz.Bytes()} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			entries, err := ReadWebFile(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatalf("ReadWebFile: %v", err)
			}
			if len(entries) != 2 || string(entries[1].Data) != "meta" {
				t.Fatalf("entries=%+v", entries)
			}

			expanded, err := Extract(bytes.NewReader(data), int64(len(data)), "x.unityweb", game.Normal)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			inner, ok := entryByPath(expanded, "CAB-web")
			if !ok || string(inner.Data) != "inner" {
				t.Fatalf("nested bundle not expanded: %+v", expanded)
			}
			if _, ok := entryByPath(expanded, "data.unity3d"); ok {
				t.Fatal("nested container entry kept alongside its contents")
			}
		})
	}
}
