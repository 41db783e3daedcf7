package upload

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies why a multipart file did not arrive intact. Values
// follow the classic upload error numbering; 5 is unused.
type ErrorCode int

const (
	CodeOK        ErrorCode = 0
	CodeIniSize   ErrorCode = 1
	CodeFormSize  ErrorCode = 2
	CodePartial   ErrorCode = 3
	CodeNoFile    ErrorCode = 4
	CodeNoTmpDir  ErrorCode = 6
	CodeCantWrite ErrorCode = 7
	CodeExtension ErrorCode = 8
)

const (
	MsgFileMissed    = "File missed in request."
	MsgArrayOfFiles  = "Array of files is forbidden."
	MsgCannotBeSaved = "Uploading process. File not a valid or cannot be saved for some reason."
)

var (
	ErrFileMissed    = errors.New("file missed in request")
	ErrArrayOfFiles  = errors.New("array of files is forbidden")
	ErrCannotBeSaved = errors.New("file cannot be saved")
)

// CodeToMessage returns the client-facing message for code.
func CodeToMessage(code ErrorCode) string {
	switch code {
	case CodeIniSize:
		return "The uploaded file exceeds the upload_max_filesize directive in php.ini."
	case CodeFormSize:
		return "The uploaded file exceeds the MAX_FILE_SIZE directive that was specified in the HTML form."
	case CodePartial:
		return "The uploaded file was only partially uploaded."
	case CodeNoFile:
		return "No file was uploaded."
	case CodeNoTmpDir:
		return "Missing a temporary folder. Needs checking PHP configuration."
	case CodeCantWrite:
		return "Failed to write file to disk. Needs checking folder permissions."
	case CodeExtension:
		return "A PHP extension stopped the file upload. PHP does not provide a way to ascertain which extension caused the file upload to stop; examining the list of loaded extensions with phpinfo() may help."
	default:
		return "Unknown upload error on server."
	}
}

// CodeToStatus returns the HTTP status for code: client-side problems are
// 400, server configuration problems and unknown codes are 500.
func CodeToStatus(code ErrorCode) int {
	switch code {
	case CodeIniSize, CodeFormSize, CodePartial, CodeNoFile:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// TransportError is a non-OK upload code, optionally with the underlying cause.
type TransportError struct {
	Code ErrorCode
	Err  error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload error %d: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("upload error %d", e.Code)
}

func (e *TransportError) Unwrap() error { return e.Err }
