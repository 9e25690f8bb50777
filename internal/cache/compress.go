package cache

import (
	"bytes"
	"compress/gzip"
	"io"

	"github.com/rotisserie/eris"
)

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, eris.Wrap(err, "gzip write")
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "gzip close")
	}
	return buf.Bytes(), nil
}

func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrap(err, "gzip reader")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "gzip read")
	}
	return out, nil
}
