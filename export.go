// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

package assetmap

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/woozymasta/assetmap/serialized"
	"golang.org/x/sync/errgroup"
)

// Format is the on-disk form of an asset catalog.
type Format uint8

// Catalog formats.
const (
	// FormatXML is an `Assets` document with one `Asset` element per entry.
	FormatXML Format = iota
	// FormatJSON is an indented array of entries.
	FormatJSON
	// FormatBinary is CBOR compressed with a Codec.
	FormatBinary
)

// CreatedAtLayout is the layout of the XML createdAt attribute (UTC).
const CreatedAtLayout = "2006-01-02T15:04:05"

// catalogMagic opens a binary catalog.
var catalogMagic = [4]byte{'A', 'M', 'A', 'P'}

const (
	catalogVersion    = 1
	catalogHeaderSize = 12
)

var formatNames = map[Format]string{
	FormatXML:    "xml",
	FormatJSON:   "json",
	FormatBinary: "bin",
}

// String returns the format name, which is also its file extension without dot.
func (f Format) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}

	return fmt.Sprintf("format(%d)", uint8(f))
}

// Ext returns the file extension with a leading dot.
func (f Format) Ext() string {
	return "." + f.String()
}

// ParseFormat parses a format name. "binary" is accepted for "bin".
func ParseFormat(value string) (Format, error) {
	value = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".")
	switch value {
	case "", "xml":
		return FormatXML, nil
	case "json":
		return FormatJSON, nil
	case "bin", "binary":
		return FormatBinary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if _, ok := formatNames[f]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(f))
	}

	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}

	*f = parsed
	return nil
}

// Catalog is an asset catalog with its export metadata.
type Catalog struct {
	// CreatedAt is the export time. Zero is replaced by the current time.
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	// Filename is the catalog name written to the XML root.
	Filename string `json:"filename" yaml:"filename"`
	// Game is the variant name the catalog was built for.
	Game string `json:"game" yaml:"game"`
	// Entries are the catalog rows in build order.
	Entries []AssetEntry `json:"entries" yaml:"entries"`
}

// ExportOptions configures catalog output.
type ExportOptions struct {
	// Format selects the encoding. Default is FormatXML.
	Format Format `json:"format" yaml:"format"`
	// Codec compresses FormatBinary output. Default is CodecLZ4.
	Codec Codec `json:"codec" yaml:"codec"`
	// BackupKeep rotates previous catalog generations on SaveCatalog.
	BackupKeep int `json:"backup_keep,omitempty" yaml:"backup_keep,omitempty"`
}

// CatalogPath returns `<dir>/<name><ext>` for format.
func CatalogPath(dir string, name string, format Format) (string, error) {
	trimmed, err := checkMapName(name)
	if err != nil {
		return "", err
	}
	if _, ok := formatNames[format]; !ok {
		return "", fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(format))
	}

	return filepath.Join(dir, trimmed+format.Ext()), nil
}

// WriteCatalog encodes cat to w.
func WriteCatalog(w io.Writer, cat Catalog, opts ExportOptions) error {
	if cat.CreatedAt.IsZero() {
		cat.CreatedAt = time.Now()
	}

	bw := bufio.NewWriter(w)

	var err error
	switch opts.Format {
	case FormatXML:
		err = writeCatalogXML(bw, cat)
	case FormatJSON:
		err = writeCatalogJSON(bw, cat)
	case FormatBinary:
		err = writeCatalogBinary(bw, cat, opts.Codec)
	default:
		err = fmt.Errorf("%w: %d", ErrUnknownFormat, uint8(opts.Format))
	}
	if err != nil {
		return err
	}

	return bw.Flush()
}

// SaveCatalog writes cat to `<dir>/<name><ext>` atomically and returns the path.
func SaveCatalog(dir string, name string, cat Catalog, opts ExportOptions) (string, error) {
	target, err := CatalogPath(dir, name, opts.Format)
	if err != nil {
		return "", err
	}

	if cat.Filename == "" {
		cat.Filename = filepath.Base(target)
	}

	err = writeFileAtomic(target, opts.BackupKeep, func(w io.Writer) error {
		return WriteCatalog(w, cat, opts)
	})
	if err != nil {
		return "", fmt.Errorf("save catalog: %w", err)
	}

	return target, nil
}

// Pending is an in-flight background catalog write.
type Pending struct {
	group *errgroup.Group
	path  string
}

// Wait blocks until the write completes and returns its path.
func (p *Pending) Wait() (string, error) {
	if err := p.group.Wait(); err != nil {
		return "", err
	}

	return p.path, nil
}

// SaveCatalogAsync runs SaveCatalog off the caller goroutine. The entries of
// cat must not be modified until Wait returns. A context cancelled before the
// write starts aborts it.
func SaveCatalogAsync(ctx context.Context, dir string, name string, cat Catalog, opts ExportOptions) *Pending {
	g, gctx := errgroup.WithContext(ctx)
	p := &Pending{group: g}

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}

		path, err := SaveCatalog(dir, name, cat, opts)
		p.path = path
		return err
	})

	return p
}

// ReadCatalog decodes a catalog in any format. The format is detected from
// the content.
func ReadCatalog(r io.Reader) (Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	if bytes.HasPrefix(data, catalogMagic[:]) {
		return readCatalogBinary(data)
	}

	switch trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff"); {
	case bytes.HasPrefix(trimmed, []byte("<")):
		return readCatalogXML(trimmed)
	case bytes.HasPrefix(trimmed, []byte("[")):
		var cat Catalog
		if err := json.Unmarshal(trimmed, &cat.Entries); err != nil {
			return Catalog{}, fmt.Errorf("%w: json: %w", ErrCorruptCatalog, err)
		}

		return cat, nil
	default:
		return Catalog{}, fmt.Errorf("%w: unrecognized content", ErrCorruptCatalog)
	}
}

// LoadCatalog reads a catalog file.
func LoadCatalog(path string) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()

	cat, err := ReadCatalog(f)
	if err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}

	return cat, nil
}

// xmlCatalog is the XML document root.
type xmlCatalog struct {
	XMLName   xml.Name   `xml:"Assets"`
	Filename  string     `xml:"filename,attr"`
	CreatedAt string     `xml:"createdAt,attr"`
	Assets    []xmlAsset `xml:"Asset"`
}

type xmlAsset struct {
	Name      string  `xml:"Name"`
	Container string  `xml:"Container"`
	Type      xmlType `xml:"Type"`
	PathID    int64   `xml:"PathID"`
	Source    string  `xml:"Source"`
	Size      int64   `xml:"Size"`
}

// xmlType carries the class id as attribute and its label as text.
type xmlType struct {
	Label string `xml:",chardata"`
	ID    int32  `xml:"id,attr"`
}

func writeCatalogXML(w io.Writer, cat Catalog) error {
	doc := xmlCatalog{
		Filename:  cat.Filename,
		CreatedAt: cat.CreatedAt.UTC().Format(CreatedAtLayout),
		Assets:    make([]xmlAsset, 0, len(cat.Entries)),
	}

	for _, e := range cat.Entries {
		doc.Assets = append(doc.Assets, xmlAsset{
			Name:      e.Name,
			Container: e.Container,
			Type:      xmlType{ID: int32(e.Type), Label: e.Type.String()},
			PathID:    e.PathID,
			Source:    e.Source,
			Size:      e.Size,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode xml catalog: %w", err)
	}

	return enc.Close()
}

func readCatalogXML(data []byte) (Catalog, error) {
	var doc xmlCatalog
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Catalog{}, fmt.Errorf("%w: xml: %w", ErrCorruptCatalog, err)
	}

	cat := Catalog{
		Filename: doc.Filename,
		Entries:  make([]AssetEntry, 0, len(doc.Assets)),
	}

	if doc.CreatedAt != "" {
		created, err := time.Parse(CreatedAtLayout, doc.CreatedAt)
		if err != nil {
			return Catalog{}, fmt.Errorf("%w: createdAt: %w", ErrCorruptCatalog, err)
		}
		cat.CreatedAt = created
	}

	for _, a := range doc.Assets {
		cat.Entries = append(cat.Entries, AssetEntry{
			Name:      a.Name,
			Container: a.Container,
			Source:    a.Source,
			PathID:    a.PathID,
			Size:      a.Size,
			Type:      serialized.ClassID(a.Type.ID),
		})
	}

	return cat, nil
}

func writeCatalogJSON(w io.Writer, cat Catalog) error {
	entries := cat.Entries
	if entries == nil {
		entries = []AssetEntry{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encode json catalog: %w", err)
	}

	return nil
}

// wireCatalog is the CBOR payload of a binary catalog.
type wireCatalog struct {
	Game      string      `cbor:"1,keyasint"`
	Filename  string      `cbor:"2,keyasint"`
	CreatedAt int64       `cbor:"3,keyasint"`
	Entries   []wireEntry `cbor:"4,keyasint"`
}

type wireEntry struct {
	Name      string `cbor:"1,keyasint"`
	Container string `cbor:"2,keyasint,omitempty"`
	Source    string `cbor:"3,keyasint"`
	PathID    int64  `cbor:"4,keyasint"`
	Size      int64  `cbor:"5,keyasint"`
	Type      int32  `cbor:"6,keyasint"`
}

// catalogEncMode is deterministic so equal catalogs encode to equal bytes.
var catalogEncMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}

	return mode
}()

// writeCatalogBinary writes magic, version, codec, reserved u16, raw size u32
// and the compressed CBOR payload.
func writeCatalogBinary(w io.Writer, cat Catalog, codec Codec) error {
	wire := wireCatalog{
		Game:      cat.Game,
		Filename:  cat.Filename,
		CreatedAt: cat.CreatedAt.UTC().Unix(),
		Entries:   make([]wireEntry, 0, len(cat.Entries)),
	}

	for _, e := range cat.Entries {
		wire.Entries = append(wire.Entries, wireEntry{
			Name:      e.Name,
			Container: e.Container,
			Source:    e.Source,
			PathID:    e.PathID,
			Size:      e.Size,
			Type:      int32(e.Type),
		})
	}

	raw, err := catalogEncMode.Marshal(wire)
	if err != nil {
		return fmt.Errorf("encode binary catalog: %w", err)
	}
	if len(raw) > maxCatalogSize {
		return fmt.Errorf("binary catalog payload of %d bytes is too large", len(raw))
	}

	payload, used, err := codec.compress(raw)
	if err != nil {
		return err
	}

	var header [catalogHeaderSize]byte
	copy(header[:4], catalogMagic[:])
	header[4] = catalogVersion
	header[5] = byte(used)
	binary.LittleEndian.PutUint32(header[8:], uint32(len(raw)))

	if _, err := w.Write(header[:]); err != nil {
		return err
	}

	_, err = w.Write(payload)
	return err
}

func readCatalogBinary(data []byte) (Catalog, error) {
	if len(data) < catalogHeaderSize {
		return Catalog{}, fmt.Errorf("%w: short header", ErrCorruptCatalog)
	}
	if data[4] != catalogVersion {
		return Catalog{}, fmt.Errorf("%w: version %d", ErrCorruptCatalog, data[4])
	}

	codec := Codec(data[5])
	rawLen := binary.LittleEndian.Uint32(data[8:catalogHeaderSize])
	if rawLen > maxCatalogSize {
		return Catalog{}, fmt.Errorf("%w: raw size %d", ErrCorruptCatalog, rawLen)
	}

	raw, err := codec.decompress(data[catalogHeaderSize:], int(rawLen))
	if err != nil {
		return Catalog{}, err
	}

	var wire wireCatalog
	if err := cbor.Unmarshal(raw, &wire); err != nil {
		return Catalog{}, fmt.Errorf("%w: cbor: %w", ErrCorruptCatalog, err)
	}

	cat := Catalog{
		Game:      wire.Game,
		Filename:  wire.Filename,
		CreatedAt: time.Unix(wire.CreatedAt, 0).UTC(),
		Entries:   make([]AssetEntry, 0, len(wire.Entries)),
	}

	for _, e := range wire.Entries {
		cat.Entries = append(cat.Entries, AssetEntry{
			Name:      e.Name,
			Container: e.Container,
			Source:    e.Source,
			PathID:    e.PathID,
			Size:      e.Size,
			Type:      serialized.ClassID(e.Type),
		})
	}

	return cat, nil
}
