package upload

import "errors"

// User-facing messages.
const (
	MsgNoFile           = "Please select a file first"
	MsgUploadFailed     = "Failed to upload file. Please try again."
	MsgProcessingFailed = "Processing failed. Please try again."
	MsgCancelled        = "Processing was cancelled."
)

var (
	ErrNoFile          = errors.New(MsgNoFile)
	ErrBusy            = errors.New("upload already in progress")
	ErrAlreadyUploaded = errors.New("file already uploaded")
	ErrClosed          = errors.New("upload session closed")
	ErrUploadFailed    = errors.New(MsgUploadFailed)

	ErrUnknownModel  = errors.New("unknown separation model")
	ErrUnknownFormat = errors.New("unknown output format")

	ErrUnsupportedType = errors.New("unsupported file type")
	ErrFileTooLarge    = errors.New("file too large")
	ErrEmptyFile       = errors.New("file is empty")

	ErrSessionNotFound = errors.New("upload session not found")
)
