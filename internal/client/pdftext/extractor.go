// Package pdftext extracts plain text from PDF documents with poppler's pdftotext.
package pdftext

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/prperemyshlev/outreach-service/internal/domain"
)

const defaultTool = "pdftotext"

// ErrToolNotFound is returned when the pdftotext binary is not installed.
var ErrToolNotFound = errors.New("pdftotext not found in PATH")

// CommandRunner runs an external command and returns its stdout
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		return out, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// Extractor turns PDF bytes into text
type Extractor struct {
	tool   string
	runner CommandRunner
}

// New creates an extractor using the binary at tool, or pdftotext from PATH when empty.
func New(tool string) *Extractor {
	return NewWithRunner(tool, execRunner{})
}

// NewWithRunner creates an extractor with a custom command runner
func NewWithRunner(tool string, runner CommandRunner) *Extractor {
	if tool == "" {
		tool = defaultTool
	}
	return &Extractor{tool: tool, runner: runner}
}

// CheckAvailable reports whether the configured binary can be found
func (e *Extractor) CheckAvailable() error {
	if _, err := exec.LookPath(e.tool); err != nil {
		return ErrToolNotFound
	}
	return nil
}

// InstallInstructions returns a hint for installing pdftotext.
func InstallInstructions() string {
	return "pdftotext is required for resume upload: brew install poppler (macOS) or apt install poppler-utils (Debian/Ubuntu)"
}

// ExtractText returns the layout-preserving text of a PDF. A document that yields
// no text (scanned images, broken files) is an ErrExtractionFailed.
func (e *Extractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrExtractionFailed)
	}

	f, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(pdf); err != nil {
		f.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	out, err := e.runner.Run(ctx, e.tool, "-layout", "-enc", "UTF-8", f.Name(), "-")
	if err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", fmt.Errorf("%w: %w", domain.ErrExtractionFailed, ErrToolNotFound)
		}
		return "", fmt.Errorf("%w: pdftotext failed: %v", domain.ErrExtractionFailed, err)
	}

	text := strings.TrimSpace(strings.ReplaceAll(string(out), "\f", "\n"))
	if text == "" {
		return "", fmt.Errorf("%w: no text in document", domain.ErrExtractionFailed)
	}

	return text, nil
}
