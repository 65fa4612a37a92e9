// Package ocr extracts text from raster images and PDFs by shelling out
// to tesseract (and pdftoppm for PDF page rendering). It is the cheap
// local stage that runs before any remote model call.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Client runs local OCR extraction.
type Client struct {
	TesseractPath string
	PDFToPPMPath  string
}

// NewClient creates an OCR client using the given binary paths.
func NewClient(tesseractPath, pdftoppmPath string) *Client {
	if tesseractPath == "" {
		tesseractPath = "tesseract"
	}
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	return &Client{TesseractPath: tesseractPath, PDFToPPMPath: pdftoppmPath}
}

// Available reports whether the tesseract binary can be found. Callers
// treat an unavailable binary as "insufficient extraction", not an error.
func (c *Client) Available() bool {
	_, err := exec.LookPath(c.TesseractPath)
	return err == nil
}

// Extract runs OCR over the artifact and returns the recognized text with
// line breaks preserved. PDF artifacts are rendered page by page first.
// An empty result is a valid outcome, not an error.
func (c *Client) Extract(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := exec.LookPath(c.TesseractPath); err != nil {
		return "", fmt.Errorf("tesseract not available: %w", err)
	}

	if isPDF(name, data) {
		return c.extractPDF(ctx, data)
	}
	return c.runTesseract(ctx, data)
}

func isPDF(name string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(name), ".pdf") {
		return true
	}
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// runTesseract feeds image bytes to tesseract via stdin and reads the
// recognized text from stdout.
func (c *Client) runTesseract(ctx context.Context, image []byte) (string, error) {
	cmd := exec.CommandContext(ctx, c.TesseractPath, "stdin", "stdout")
	cmd.Stdin = bytes.NewReader(image)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// extractPDF renders each PDF page to PNG with pdftoppm, then OCRs the
// pages in order and concatenates their text.
func (c *Client) extractPDF(ctx context.Context, pdf []byte) (string, error) {
	if _, err := exec.LookPath(c.PDFToPPMPath); err != nil {
		return "", fmt.Errorf("pdftoppm not available: %w", err)
	}

	dir, err := os.MkdirTemp("", "ocr-pdf-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(dir)
	}()

	pdfPath := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0600); err != nil {
		return "", fmt.Errorf("failed to write temp pdf: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.PDFToPPMPath, "-png", "-r", "300", pdfPath, filepath.Join(dir, "page"))
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	pages, err := filepath.Glob(filepath.Join(dir, "page-*.png"))
	if err != nil {
		return "", fmt.Errorf("failed to list rendered pages: %w", err)
	}
	sort.Strings(pages)

	var all strings.Builder
	for _, page := range pages {
		img, err := os.ReadFile(page)
		if err != nil {
			return "", fmt.Errorf("failed to read rendered page: %w", err)
		}
		text, err := c.runTesseract(ctx, img)
		if err != nil {
			return "", err
		}
		all.WriteString(text)
		all.WriteString("\n")
	}
	return all.String(), nil
}
