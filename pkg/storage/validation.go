package storage

import (
	"fmt"
	"mime/multipart"
	"slices"
)

// FileValidationError is returned by ValidateFile and PutFile when a rule rejects a file.
type FileValidationError struct {
	Details map[string]any
	Code    string
	Message string
}

func (e *FileValidationError) Error() string {
	return e.Message
}

const (
	ErrCodeFileTooLarge = "file_too_large"
	ErrCodeInvalidMIME  = "invalid_mime"
	ErrCodeEmptyFile    = "empty_file"
)

// ValidationRule checks an upload. mimeType is sniffed from content.
type ValidationRule interface {
	Validate(fh *multipart.FileHeader, mimeType string) error
}

type ruleFunc func(fh *multipart.FileHeader, mimeType string) error

func (f ruleFunc) Validate(fh *multipart.FileHeader, mimeType string) error {
	return f(fh, mimeType)
}

// ValidateFile returns the first failing rule's error.
func ValidateFile(fh *multipart.FileHeader, mimeType string, rules ...ValidationRule) error {
	for _, rule := range rules {
		if err := rule.Validate(fh, mimeType); err != nil {
			return err
		}
	}
	return nil
}

// MaxSize rejects files larger than limit bytes.
func MaxSize(limit int64) ValidationRule {
	return ruleFunc(func(fh *multipart.FileHeader, _ string) error {
		if fh.Size <= limit {
			return nil
		}
		return &FileValidationError{
			Code:    ErrCodeFileTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes", fh.Size, limit),
			Details: map[string]any{"limit": limit, "got": fh.Size},
		}
	})
}

func NotEmpty() ValidationRule {
	return ruleFunc(func(fh *multipart.FileHeader, _ string) error {
		if fh != nil && fh.Size > 0 {
			return nil
		}
		return &FileValidationError{Code: ErrCodeEmptyFile, Message: "file is empty", Details: map[string]any{}}
	})
}

// AllowedTypes accepts MIME types matching patterns such as "image/png" or "image/*".
func AllowedTypes(patterns ...string) ValidationRule {
	return ruleFunc(func(_ *multipart.FileHeader, mimeType string) error {
		if matchesMIME(mimeType, patterns) {
			return nil
		}
		return &FileValidationError{
			Code:    ErrCodeInvalidMIME,
			Message: fmt.Sprintf("file type %q is not allowed", mimeType),
			Details: map[string]any{"type": mimeType, "allowed": slices.Clone(patterns)},
		}
	})
}

// ImageOnly accepts the image types the package can name an extension for.
func ImageOnly() ValidationRule {
	allowed := make([]string, 0, len(imageExtensions))
	for mt := range imageExtensions {
		allowed = append(allowed, mt)
	}
	slices.Sort(allowed)
	return AllowedTypes(allowed...)
}
