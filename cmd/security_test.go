package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateSQLFilePath(t *testing.T) {
	tmpDir := t.TempDir()

	validFile := filepath.Join(tmpDir, "query.sql")
	if err := os.WriteFile(validFile, []byte("SELECT * FROM users;"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	largeFile := filepath.Join(tmpDir, "large.sql")
	if err := os.WriteFile(largeFile, make([]byte, maxSQLFileSize+1), 0600); err != nil {
		t.Fatalf("failed to create large file: %v", err)
	}

	dirPath := filepath.Join(tmpDir, "subdir")
	if err := os.Mkdir(dirPath, 0700); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		wantError bool
		errMsg    string
	}{
		{
			name:     "valid SQL file",
			filePath: validFile,
		},
		{
			name:      "non-existent file",
			filePath:  filepath.Join(tmpDir, "nonexistent.sql"),
			wantError: true,
			errMsg:    "cannot access file",
		},
		{
			name:      "directory instead of file",
			filePath:  dirPath,
			wantError: true,
			errMsg:    "not a regular file",
		},
		{
			name:      "file too large",
			filePath:  largeFile,
			wantError: true,
			errMsg:    "file too large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSQLFilePath(tt.filePath)
			if tt.wantError && err == nil {
				t.Fatalf("validateSQLFilePath(%q) expected error, got nil", tt.filePath)
			}
			if !tt.wantError && err != nil {
				t.Fatalf("validateSQLFilePath(%q) unexpected error: %v", tt.filePath, err)
			}
			if tt.wantError && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("validateSQLFilePath(%q) error = %v, want error containing %q", tt.filePath, err, tt.errMsg)
			}
		})
	}
}

func TestValidateSQLFilePath_CleanPath(t *testing.T) {
	tmpDir := t.TempDir()

	validFile := filepath.Join(tmpDir, "query.sql")
	if err := os.WriteFile(validFile, []byte("SELECT * FROM users;"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	// Paths containing . and .. segments must be cleaned before use
	messyPath := filepath.Join(tmpDir, ".", "subdir", "..", "query.sql")

	if err := validateSQLFilePath(messyPath); err != nil {
		t.Errorf("validateSQLFilePath should clean and accept messy path: %v", err)
	}
}
