package compress

import "fmt"

const (
	NameNop    = "nop"
	NameGZip   = "gzip"
	NameBrotli = "brotli"
	NameLZ4    = "lz4"
)

// Compress encodes serialized documents before they are written to a slot or a row.
type Compress interface {
	Name() string
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Nop stores documents as plain json.
type Nop struct{}

func NewNop() Nop { return Nop{} }

func (Nop) Name() string { return NameNop }

func (Nop) Encode(data []byte) ([]byte, error) { return data, nil }

func (Nop) Decode(data []byte) ([]byte, error) { return data, nil }

// FromName returns the compressor registered under name. An empty name means Nop.
func FromName(name string) (Compress, error) {
	switch name {
	case "", NameNop:
		return NewNop(), nil
	case NameGZip:
		return NewGZip(), nil
	case NameBrotli:
		return NewBrotli(), nil
	case NameLZ4:
		return NewLZ4(), nil
	}

	return nil, fmt.Errorf("unknown compression %q", name)
}
