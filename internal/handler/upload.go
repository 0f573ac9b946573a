package handler

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"cliphub/internal/imagecheck"
	"cliphub/pkg/apierror"
)

// spoolUpload writes a multipart file to the temp dir and verifies it
// decodes as an image. Returns the local path; the media store owns the
// file's deletion from there on.
func spoolUpload(tempDir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", apierror.Validation("unable to read uploaded file")
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	tmp, err := os.CreateTemp(tempDir, "upload-*"+ext)
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	if _, err := imagecheck.Verify(tmp.Name()); err != nil {
		os.Remove(tmp.Name())
		return "", apierror.Validation("uploaded file is not a supported image")
	}

	return tmp.Name(), nil
}
