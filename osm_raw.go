package osmworld

import (
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyInput is returned when input document has no bytes
	ErrEmptyInput = errors.New("empty input document")
	// ErrUnsupportedFormat is returned for unknown file extensions
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrMalformedDocument is returned when document root is not <osm>
	ErrMalformedDocument = errors.New("malformed document root")
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// OSMDataRaw holds every node and way of the input document in document order
type OSMDataRaw struct {
	nodes []RawNode
	ways  []RawWay
}

// formatFromExtension normalizes file extension to either "xml" or "pbf"
func formatFromExtension(ext string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "osm", "xml", "":
		return "xml", nil
	case "pbf", "osm.pbf":
		return "pbf", nil
	default:
		return "", errors.Wrapf(ErrUnsupportedFormat, "extension '%s'", ext)
	}
}

// readOSM parses fully buffered document. Unknown tags and relations are ignored
func readOSM(ctx context.Context, data []byte, format string) (*OSMDataRaw, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}
	var scanner OSMScanner
	switch format {
	case "xml":
		if err := checkXMLRoot(data); err != nil {
			return nil, err
		}
		scanner = osmxml.New(ctx, bytes.NewReader(data))
	case "pbf":
		scanner = osmpbf.New(ctx, bytes.NewReader(data), 4)
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format '%s'", format)
	}
	defer scanner.Close()

	raw := OSMDataRaw{}
	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			raw.nodes = append(raw.nodes, rawNodeFromOSM(obj))
		case *osm.Way:
			raw.ways = append(raw.ways, rawWayFromOSM(obj))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Scanner error")
	}
	return &raw, nil
}

// checkXMLRoot makes sure the first element of the document is <osm>
func checkXMLRoot(data []byte) error {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return errors.Wrap(ErrMalformedDocument, "no root element")
		}
		if err != nil {
			return errors.Wrap(ErrMalformedDocument, err.Error())
		}
		if start, ok := token.(xml.StartElement); ok {
			if start.Name.Local != "osm" {
				return errors.Wrapf(ErrMalformedDocument, "root element is <%s>", start.Name.Local)
			}
			return nil
		}
	}
}
