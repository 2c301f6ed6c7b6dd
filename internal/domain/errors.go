package domain

import "errors"

var (
	ErrUnrecognizedPayload = errors.New("payload is neither structured nor textual")
	ErrAllItemsFailed      = errors.New("every item in the batch failed")
	ErrDirectoryNotFound   = errors.New("directory not found")
	ErrAPIKeyRequired      = errors.New("API key required; set SEMAPHORE_API_KEY or pass --api-key")
	ErrNoAccessToken       = errors.New("no access token received")
	ErrEmptyDocument       = errors.New("document has no content to classify")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrScriptNotFound      = errors.New("download script not found; set DOWNLOAD_SCRIPT")
	ErrServiceRejected     = errors.New("classification service returned an error")
)
