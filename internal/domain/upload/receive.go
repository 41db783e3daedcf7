package upload

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
)

const (
	maxFileSizeField = "MAX_FILE_SIZE"
	maxValueBytes    = 64 << 10
)

// Incoming is a received file part, held in memory or spooled to a
// temporary file. Close releases the temporary file.
type Incoming struct {
	Filename string
	Size     int64

	content io.ReadSeeker
	tmp     *os.File
}

// NewIncoming wraps an in-memory file.
func NewIncoming(filename string, data []byte) *Incoming {
	return &Incoming{Filename: filename, Size: int64(len(data)), content: bytes.NewReader(data)}
}

func (f *Incoming) Reader() io.ReadSeeker { return f.content }

func (f *Incoming) Close() error {
	if f.tmp == nil {
		return nil
	}
	_ = f.tmp.Close()
	return os.Remove(f.tmp.Name())
}

// limitedBody records whether the request body went over its size limit,
// so a parse error caused by the cut is reported as a size problem.
type limitedBody struct {
	io.ReadCloser
	exceeded bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		b.exceeded = true
	}
	return n, err
}

// receiveSingleFile walks the multipart body and returns its only file.
// Unlike multipart.Reader.ReadForm it keeps track of file inputs that were
// submitted without a file (filename=""), which map to CodeNoFile.
func receiveSingleFile(r *http.Request, maxMemory int64, tempDir string) (*Incoming, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, ErrFileMissed
		}
		return nil, &TransportError{Code: classifyParseError(err), Err: err}
	}

	var (
		files      []*Incoming
		emptyFiles int
		arrayField bool
		formLimit  int64
	)
	release := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			release()
			return nil, &TransportError{Code: classifyParseError(err), Err: err}
		}

		name := part.FormName()
		filename, isFile := partFilename(part)
		if !isFile {
			value, err := io.ReadAll(io.LimitReader(part, maxValueBytes+1))
			if err == nil && len(value) > maxValueBytes {
				err = multipart.ErrMessageTooLarge
			}
			if err != nil {
				release()
				return nil, &TransportError{Code: classifyParseError(err), Err: err}
			}
			if name == maxFileSizeField {
				if limit, err := strconv.ParseInt(strings.TrimSpace(string(value)), 10, 64); err == nil && limit > 0 {
					formLimit = limit
				}
			}
			continue
		}

		if strings.HasSuffix(name, "[]") {
			arrayField = true
		}
		if filename == "" {
			emptyFiles++
			continue
		}

		f, err := spool(part, filename, maxMemory, tempDir)
		if err != nil {
			release()
			return nil, &TransportError{Code: classifyParseError(err), Err: err}
		}
		files = append(files, f)
	}

	switch total := len(files) + emptyFiles; {
	case arrayField || total > 1:
		release()
		return nil, ErrArrayOfFiles
	case total == 0:
		return nil, ErrFileMissed
	case len(files) == 0:
		return nil, &TransportError{Code: CodeNoFile}
	}

	file := files[0]
	if formLimit > 0 && file.Size > formLimit {
		_ = file.Close()
		return nil, &TransportError{Code: CodeFormSize}
	}
	return file, nil
}

// partFilename reports whether the part is a file input and its base name.
// A file input left empty by the client has a filename parameter with no
// value.
func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	if _, ok := params["filename"]; !ok {
		return "", false
	}
	return part.FileName(), true
}

// spool keeps up to maxMemory bytes in memory and moves larger files to a
// temporary file in tempDir.
func spool(part io.Reader, filename string, maxMemory int64, tempDir string) (*Incoming, error) {
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, part, maxMemory+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n <= maxMemory {
		return NewIncoming(filename, buf.Bytes()), nil
	}

	tmp, err := os.CreateTemp(tempDir, "stream-upload-*")
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(tmp, io.MultiReader(&buf, part))
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return &Incoming{Filename: filename, Size: size, content: tmp, tmp: tmp}, nil
}
