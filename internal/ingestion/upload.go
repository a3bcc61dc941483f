package ingestion

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
)

// maxUploadBytes bounds accepted posting uploads.
const maxUploadBytes = 10 << 20

// FromUpload extracts the posting text from an uploaded document.
// PDF and word-processor formats go through docconv; plain text
// formats are decoded directly.
func FromUpload(filename string, data []byte) (string, *Source, error) {
	if len(data) == 0 {
		return "", nil, fmt.Errorf("uploaded file is empty")
	}
	if len(data) > maxUploadBytes {
		return "", nil, fmt.Errorf("uploaded file exceeds %d bytes", maxUploadBytes)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	var text string
	switch ext {
	case ".txt", ".md", "":
		text = string(data)
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.Convert(bytes.NewReader(data), docconv.MimeTypeByExtension(filename), true)
		if err != nil {
			return "", nil, fmt.Errorf("failed to extract document text: %w", err)
		}
		text = res.Body
	default:
		return "", nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("document yielded no text")
	}
	return cleaned, &Source{Filename: filepath.Base(filename)}, nil
}
