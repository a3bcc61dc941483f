// Package render runs the asynchronous PDF rendering pipeline: workers
// claim queued render jobs under a lease, typeset the stored LaTeX
// source with pdflatex, and upload the resulting artifact to blob
// storage.
package render

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// CompilationTimeout bounds a single pdflatex invocation.
const CompilationTimeout = 30 * time.Second

// CompilationError carries the pdflatex log alongside the failure so
// callers can surface actionable diagnostics on the failed job.
type CompilationError struct {
	Message   string
	LogOutput string
	Cause     error
}

func (e *CompilationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CompilationError) Unwrap() error {
	return e.Cause
}

// Typesetter turns LaTeX source into a PDF artifact. The log output is
// returned on both success and failure for diagnostics.
type Typesetter interface {
	Typeset(ctx context.Context, latexSource string) (pdf []byte, logOutput string, err error)
}

// PDFLaTeX typesets documents by shelling out to a local pdflatex
// installation.
type PDFLaTeX struct {
	Timeout time.Duration
}

// NewPDFLaTeX returns a pdflatex-backed typesetter with the default
// compilation timeout.
func NewPDFLaTeX() *PDFLaTeX {
	return &PDFLaTeX{Timeout: CompilationTimeout}
}

// Typeset compiles the source in a throwaway working directory.
// pdflatex exits non-zero on recoverable warnings, so the produced PDF
// is the success signal, not the exit code.
func (p *PDFLaTeX) Typeset(ctx context.Context, latexSource string) ([]byte, string, error) {
	if _, err := exec.LookPath("pdflatex"); err != nil {
		return nil, "", &CompilationError{
			Message: "pdflatex not found in PATH",
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "render-job-*")
	if err != nil {
		return nil, "", &CompilationError{
			Message: "failed to create working directory",
			Cause:   err,
		}
	}
	defer os.RemoveAll(workDir)

	texPath := filepath.Join(workDir, "resume.tex")
	if err := os.WriteFile(texPath, []byte(latexSource), 0o644); err != nil {
		return nil, "", &CompilationError{
			Message: "failed to write LaTeX source",
			Cause:   err,
		}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = CompilationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "pdflatex",
		"-interaction=nonstopmode",
		"-output-directory", workDir,
		texPath,
	)
	var outBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &outBuf
	runErr := cmd.Run()
	logOutput := outBuf.String()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, logOutput, &CompilationError{
			Message:   "pdflatex timed out",
			LogOutput: logOutput,
			Cause:     ctx.Err(),
		}
	}

	pdfPath := filepath.Join(workDir, "resume.pdf")
	pdf, readErr := os.ReadFile(pdfPath)
	if readErr != nil || len(pdf) == 0 {
		return nil, logOutput, &CompilationError{
			Message:   "pdflatex produced no PDF",
			LogOutput: logOutput,
			Cause:     runErr,
		}
	}
	return pdf, logOutput, nil
}
