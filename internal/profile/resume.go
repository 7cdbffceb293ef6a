package profile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/jonathan/apply-assistant/internal/types"
)

// ErrUnsupportedResume is returned for files that are not pdf, docx or doc.
var ErrUnsupportedResume = errors.New("please upload a PDF or DOCX file")

var resumeExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".doc":  true,
}

// Detected content types accepted for a resume. Legacy .doc files are OLE containers
// and some docx writers produce archives mimetype only knows as zip.
var resumeMIMETypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"application/x-ole-storage",
	"application/zip",
}

// sniffLen is how much of the file is read for content detection.
const sniffLen = 3072

// CheckResume validates a resume by extension and, when head is non-empty, by content.
func CheckResume(filename string, head []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !resumeExtensions[ext] {
		return fmt.Errorf("%w: %s", ErrUnsupportedResume, filepath.Base(filename))
	}
	if len(head) == 0 {
		return nil
	}

	detected := mimetype.Detect(head)
	for m := detected; m != nil; m = m.Parent() {
		for _, allowed := range resumeMIMETypes {
			if m.Is(allowed) {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s looks like %s", ErrUnsupportedResume, filepath.Base(filename), detected.String())
}

// UploadResume checks the file at path and uploads it, then reloads the profile
// so the returned quick-apply data reflects the parsed resume.
func (p *Provider) UploadResume(ctx context.Context, path string) (*types.Profile, error) {
	if err := CheckResume(path, nil); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume: %w", err)
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if err := CheckResume(path, head); err != nil {
		return nil, err
	}

	return p.upload(ctx, filepath.Base(path), bytes.NewReader(data))
}

func (p *Provider) upload(ctx context.Context, filename string, content io.Reader) (*types.Profile, error) {
	uploaded, err := p.client.UploadResume(ctx, filename, content)
	if err != nil {
		return nil, err
	}
	p.log.Infow("resume uploaded", "file", filename)

	reloaded, err := p.Get(ctx)
	if err != nil {
		p.log.Warnw("failed to reload profile after upload", "error", err)
		return uploaded, nil
	}
	return reloaded, nil
}
