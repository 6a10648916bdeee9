package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gYonder/genai-shell/internal/util"
)

// OpenFile opens a local file as a Source. The caller closes the returned file.
func OpenFile(path string) (Source, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return Source{}, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return Source{}, nil, err
	}
	if info.IsDir() {
		f.Close()
		return Source{}, nil, fmt.Errorf("%s is a directory", path)
	}
	return Source{Body: f, Name: filepath.Base(path), Size: info.Size()}, f, nil
}

// SpoolReader turns a non-seekable stream into a Source named name. Streams up
// to maxMemory bytes stay in RAM when the system can afford it; anything larger
// goes to a temp file that is removed on Close.
func SpoolReader(r io.Reader, name string, maxMemory int64) (Source, io.Closer, error) {
	head, err := io.ReadAll(io.LimitReader(r, maxMemory+1))
	if err != nil {
		return Source{}, nil, err
	}

	if int64(len(head)) <= maxMemory {
		if util.PlaceBuffer(int64(len(head))) == util.InMemory {
			return Source{Body: bytes.NewReader(head), Name: name, Size: int64(len(head))}, noClose{}, nil
		}
	}

	tmp, err := os.CreateTemp("", "genai-upload-*")
	if err != nil {
		return Source{}, nil, err
	}
	cleanup := &tempFile{File: tmp}
	if _, err := tmp.Write(head); err != nil {
		cleanup.Close()
		return Source{}, nil, err
	}
	n, err := io.Copy(tmp, r)
	if err != nil {
		cleanup.Close()
		return Source{}, nil, err
	}
	return Source{Body: tmp, Name: name, Size: int64(len(head)) + n}, cleanup, nil
}

type noClose struct{}

func (noClose) Close() error { return nil }

type tempFile struct {
	*os.File
}

func (t *tempFile) Close() error {
	err := t.File.Close()
	os.Remove(t.File.Name())
	return err
}
