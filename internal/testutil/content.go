package testutil

import (
	"bytes"
	"io"

	"github.com/ledongthuc/pdf"
)

// PageContent returns the concatenated, decoded content streams of page n (1-based)
func PageContent(data []byte, n int) ([]byte, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	contents := r.Page(n).V.Key("Contents")
	var out bytes.Buffer
	if contents.Kind() == pdf.Array {
		for i := 0; i < contents.Len(); i++ {
			if err := appendStream(&out, contents.Index(i)); err != nil {
				return nil, err
			}
		}
		return out.Bytes(), nil
	}

	if err := appendStream(&out, contents); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages ledongthuc/pdf sees in data
func PageCount(data []byte) (int, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}

func appendStream(out *bytes.Buffer, v pdf.Value) error {
	if v.Kind() != pdf.Stream {
		return nil
	}
	rc := v.Reader()
	defer rc.Close()
	_, err := io.Copy(out, rc)
	return err
}
