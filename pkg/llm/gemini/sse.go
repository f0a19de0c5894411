package gemini

import (
	"bufio"
	"bytes"
	"io"
)

type sseDecoder struct {
	r *bufio.Reader
}

func newSSEDecoder(r io.Reader) *sseDecoder {
	return &sseDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Next returns the next event's data payload. Multiple data lines are joined
// with "\n"; comments and other fields are ignored.
func (d *sseDecoder) Next() ([]byte, error) {
	var data [][]byte
	for {
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimRight(line, "\r\n")

		if err != nil {
			data = appendData(data, line)
			if len(data) > 0 {
				return bytes.Join(data, []byte("\n")), nil
			}
			return nil, err
		}

		if len(line) == 0 {
			if len(data) == 0 {
				continue
			}
			return bytes.Join(data, []byte("\n")), nil
		}

		data = appendData(data, line)
	}
}

func appendData(dst [][]byte, line []byte) [][]byte {
	val, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return dst
	}
	val = bytes.TrimPrefix(val, []byte(" "))
	return append(dst, append([]byte(nil), val...))
}
