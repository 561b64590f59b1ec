package testdata

import "io"

// FailSource is a seekable stream that reports a fixed size but fails every Read with Err. It
// simulates a source that dies after being measured.
type FailSource struct {
	Size int64
	Err  error
	pos  int64
}

func (f *FailSource) Read(_ []byte) (int, error) {
	return 0, f.Err
}

func (f *FailSource) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		f.pos = offset
	case io.SeekCurrent:
		f.pos += offset
	case io.SeekEnd:
		f.pos = f.Size + offset
	}
	return f.pos, nil
}
