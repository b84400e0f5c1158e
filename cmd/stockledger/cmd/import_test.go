package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

// setImportFlags resets the import flag variables for one test case and
// restores the previous values afterwards.
func setImportFlags(t *testing.T, file, db, format string, share float64) {
	t.Helper()
	prevFile, prevDB, prevFormat, prevShare := importFile, dbPath, outputFormat, relativeShare
	importFile, dbPath, outputFormat, relativeShare = file, db, format, share
	t.Cleanup(func() {
		importFile, dbPath, outputFormat, relativeShare = prevFile, prevDB, prevFormat, prevShare
	})
}

func TestValidateImportFlags(t *testing.T) {
	tmpDir := t.TempDir()
	snapshotFile := filepath.Join(tmpDir, "stocktake.xlsx")
	if err := os.WriteFile(snapshotFile, []byte("placeholder"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name        string
		file        string
		db          string
		format      string
		share       float64
		expectError bool
	}{
		{
			name:   "valid flags",
			file:   snapshotFile,
			db:     filepath.Join(tmpDir, "ledger.db"),
			format: "console",
			share:  -1,
		},
		{
			name:        "missing file flag",
			file:        "",
			db:          "ledger.db",
			format:      "console",
			share:       -1,
			expectError: true,
		},
		{
			name:        "missing db flag",
			file:        snapshotFile,
			db:          "",
			format:      "console",
			share:       -1,
			expectError: true,
		},
		{
			name:        "non-existent snapshot file",
			file:        filepath.Join(tmpDir, "missing.xlsx"),
			db:          "ledger.db",
			format:      "console",
			share:       -1,
			expectError: true,
		},
		{
			name:        "unsupported format",
			file:        snapshotFile,
			db:          "ledger.db",
			format:      "xml",
			share:       -1,
			expectError: true,
		},
		{
			name:        "relative share above one",
			file:        snapshotFile,
			db:          "ledger.db",
			format:      "json",
			share:       1.5,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setImportFlags(t, tt.file, tt.db, tt.format, tt.share)

			err := validateImportFlags(importCmd, nil)
			if tt.expectError && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateAllocationDeleteFlags(t *testing.T) {
	prevDB, prevLot, prevIndex := allocDBPath, allocLotID, allocIndex
	t.Cleanup(func() {
		allocDBPath, allocLotID, allocIndex = prevDB, prevLot, prevIndex
	})

	allocDBPath, allocLotID, allocIndex = "ledger.db", "lot-1", 0
	if err := validateAllocationDeleteFlags(allocationDeleteCmd, nil); err != nil {
		t.Errorf("unexpected error for valid flags: %v", err)
	}

	allocDBPath, allocLotID, allocIndex = "ledger.db", "lot-1", -1
	if err := validateAllocationDeleteFlags(allocationDeleteCmd, nil); err == nil {
		t.Error("expected error for a negative index")
	}

	allocDBPath, allocLotID, allocIndex = "ledger.db", "", 0
	if err := validateAllocationDeleteFlags(allocationDeleteCmd, nil); err == nil {
		t.Error("expected error for a missing lot id")
	}
}
