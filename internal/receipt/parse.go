package receipt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Parse decodes a single receipt object. Numbers are kept as json.Number so
// their exact text survives into the canonical form.
func Parse(data []byte) (Receipt, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse receipt: %w", err)
	}
	if obj == nil {
		return nil, errors.New("parse receipt: not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("parse receipt: trailing data after object")
	}
	return Receipt(obj), nil
}

// ParseAll decodes receipts from r. It accepts a JSON array of objects, a
// single object, or a stream of objects (JSON lines).
func ParseAll(r io.Reader) ([]Receipt, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse receipts: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var arr []map[string]any
		if err := dec.Decode(&arr); err != nil {
			return nil, fmt.Errorf("parse receipts: %w", err)
		}
		out := make([]Receipt, 0, len(arr))
		for i, obj := range arr {
			if obj == nil {
				return nil, fmt.Errorf("parse receipts: element %d is not an object", i)
			}
			out = append(out, Receipt(obj))
		}
		return out, nil
	}

	var out []Receipt
	for {
		var obj map[string]any
		err := dec.Decode(&obj)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse receipts: record %d: %w", len(out), err)
		}
		if obj == nil {
			return nil, fmt.Errorf("parse receipts: record %d is not an object", len(out))
		}
		out = append(out, Receipt(obj))
	}
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}
