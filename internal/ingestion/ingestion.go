// Package ingestion turns job postings from outside the system (URLs,
// uploaded documents, raw text) into the cleaned plain text the
// posting parser consumes.
package ingestion

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-pipeline/internal/fetch"
)

var (
	// ErrHTTPRequestFailed is returned when the posting page cannot be
	// fetched.
	ErrHTTPRequestFailed = fmt.Errorf("HTTP request failed")
	// ErrContentExtractionFailed is returned when no text could be
	// extracted from the fetched page.
	ErrContentExtractionFailed = fmt.Errorf("content extraction failed")
)

// URLOptions controls posting ingestion from a URL.
type URLOptions struct {
	// UseBrowser enables the headless-browser fallback for postings
	// whose HTTP response carries too little text.
	UseBrowser bool
	// Fetch overrides the HTTP fetch options.
	Fetch *fetch.Options
}

// Source describes where an ingested posting came from.
type Source struct {
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Platform string `json:"platform,omitempty"`
}

// FromURL fetches a posting page and returns its cleaned text along
// with source provenance.
func FromURL(ctx context.Context, urlStr string, opts URLOptions) (string, *Source, error) {
	platform := fetch.DetectPlatform(urlStr)

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrHTTPRequestFailed, err)
	}

	contentSelectors := fetch.PlatformContentSelectors(platform)
	noiseSelectors := fetch.PlatformNoiseSelectors(platform)

	text, err := fetch.ExtractMainText(result.HTML, contentSelectors, noiseSelectors...)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}

	if opts.UseBrowser && fetch.ShouldUseBrowser(text) {
		browserHTML, browserErr := fetch.BrowserSimple(ctx, urlStr)
		if browserErr == nil {
			if rendered, extractErr := fetch.ExtractMainText(browserHTML, contentSelectors, noiseSelectors...); extractErr == nil {
				text = rendered
			}
		}
		// On browser failure the HTTP extraction stands.
	}

	cleaned := CleanText(text)
	if cleaned == "" {
		return "", nil, fmt.Errorf("%w: page yielded no text", ErrContentExtractionFailed)
	}

	return cleaned, &Source{URL: urlStr, Platform: string(platform)}, nil
}
