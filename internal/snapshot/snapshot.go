// Package snapshot encodes documents for the snapshot store. The document
// core never sees these bytes; this package is the boundary where a
// serialised form is produced and read back.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/starford/promptdesk/internal/apperr"
	"github.com/starford/promptdesk/internal/document"
	"github.com/starford/promptdesk/internal/models"
)

// Version is written into every file.
const Version = 1

// Snapshot formats.
const (
	FormatYAML = "yaml"
	FormatCBOR = "cbor"
)

// File is one stored document.
type File struct {
	Version     int                `json:"version" yaml:"version"`
	ID          string             `json:"id" yaml:"id"`
	Name        string             `json:"name" yaml:"name"`
	CreatedAt   time.Time          `json:"created_at" yaml:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" yaml:"updated_at"`
	Preferences models.Preferences `json:"preferences" yaml:"preferences"`
	Document    document.Snapshot  `json:"document" yaml:"document"`
}

// Codec converts Files to and from bytes.
type Codec interface {
	Encode(f File) ([]byte, error)
	Decode(data []byte) (File, error)
	// Ext is the file extension including the dot.
	Ext() string
}

// NewCodec returns the codec for format. An empty format selects YAML.
func NewCodec(format string) (Codec, error) {
	switch strings.ToLower(format) {
	case "", FormatYAML:
		return yamlCodec{}, nil
	case FormatCBOR:
		em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
		if err != nil {
			return nil, fmt.Errorf("snapshot: cbor mode: %w", err)
		}
		return cborCodec{enc: em}, nil
	default:
		return nil, fmt.Errorf("snapshot: format %q: %w", format, apperr.ErrInvalid)
	}
}

// FileName returns the store name for a document id.
func FileName(c Codec, id string) string { return id + c.Ext() }

// IDFromName strips the codec extension; ok is false for foreign files.
func IDFromName(c Codec, name string) (string, bool) {
	if !strings.HasSuffix(name, c.Ext()) || strings.Contains(name, "/") {
		return "", false
	}
	id := strings.TrimSuffix(name, c.Ext())
	return id, id != ""
}

// Checksum returns the hex-encoded SHA-256 digest of encoded snapshot bytes.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

type yamlCodec struct{}

func (yamlCodec) Ext() string { return ".yaml" }

func (yamlCodec) Encode(f File) ([]byte, error) {
	f.Version = Version
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode yaml: %w", err)
	}
	return data, nil
}

func (yamlCodec) Decode(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("snapshot: decode yaml: %w", err)
	}
	return f, checkFile(f)
}

type cborCodec struct {
	enc cbor.EncMode
}

func (cborCodec) Ext() string { return ".cbor" }

func (c cborCodec) Encode(f File) ([]byte, error) {
	f.Version = Version
	data, err := c.enc.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode cbor: %w", err)
	}
	return data, nil
}

func (cborCodec) Decode(data []byte) (File, error) {
	var f File
	if err := cbor.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("snapshot: decode cbor: %w", err)
	}
	return f, checkFile(f)
}

func checkFile(f File) error {
	if f.Version > Version {
		return fmt.Errorf("snapshot: version %d is newer than %d: %w", f.Version, Version, apperr.ErrInvalid)
	}
	if f.ID == "" {
		return fmt.Errorf("snapshot: missing id: %w", apperr.ErrInvalid)
	}
	return f.Document.Validate()
}
