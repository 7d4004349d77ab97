package assetmap

import (
	"testing"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/woozymasta/assetmap/internal/testkit"
	"github.com/woozymasta/assetmap/serialized"
)

// quietLogger drops every entry.
func quietLogger() log.Interface {
	return &log.Logger{Handler: discard.New(), Level: log.DebugLevel}
}

// testFile is a serialized file placed into a test session.
type testFile struct {
	name   string
	source string
	file   testkit.SerializedFile
}

// newTestSession parses files into a fresh session in order.
func newTestSession(t *testing.T, files ...testFile) *serialized.Session {
	t.Helper()

	s := serialized.NewSession()
	for _, tf := range files {
		f, err := serialized.Parse(tf.name, tf.file.Bytes())
		if err != nil {
			t.Fatalf("Parse(%s): %v", tf.name, err)
		}
		f.Source = tf.source

		if _, err := s.AddFile(f); err != nil {
			t.Fatalf("AddFile(%s): %v", tf.name, err)
		}
	}

	return s
}

// textFile is a serialized file with named text assets keyed by path id.
func textFile(names map[int64]string) testkit.SerializedFile {
	var f testkit.SerializedFile
	for id := int64(1); id <= int64(len(names)); id++ {
		f.Objects = append(f.Objects, testkit.Object{
			PathID:  id,
			ClassID: testkit.ClassTextAsset,
			Payload: testkit.Named(names[id]),
		})
	}

	return f
}

// entryByPathID returns the catalog entry of pathID from source.
func entryByPathID(entries []AssetEntry, source string, pathID int64) (AssetEntry, bool) {
	for _, e := range entries {
		if e.Source == source && e.PathID == pathID {
			return e, true
		}
	}

	return AssetEntry{}, false
}

// entryNames returns the names of entries in order.
func entryNames(entries []AssetEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}

	return out
}
