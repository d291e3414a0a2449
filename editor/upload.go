package editor

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
)

// File is an uploaded file as received from the client.
type File struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

func (f File) readAll() ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func (f File) contentType(data []byte) string {
	if f.ContentType != "" && f.ContentType != "application/octet-stream" {
		return f.ContentType
	}
	return http.DetectContentType(data)
}

// dataUrl encodes the file as "data:<mime>;base64,<payload>".
func (f File) dataUrl() (string, error) {
	data, err := f.readAll()
	if err != nil {
		return "", err
	}
	return "data:" + f.contentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

type UploadFailure struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// UploadReport describes the outcome of one gallery batch.
type UploadReport struct {
	Added []string `json:"added"`
	// Files the store rejected. The rest of the batch is still processed.
	Failed []UploadFailure `json:"failed"`
	// Files past the remaining gallery capacity.
	Skipped []string `json:"skipped"`
}

func (r UploadReport) Partial() bool {
	return len(r.Failed) > 0
}
