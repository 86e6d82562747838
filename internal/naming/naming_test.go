package naming

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompute(t *testing.T) {
	now := time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		doctype  string
		docname  string
		filename string
		policy   Policy
		want     Target
	}{
		{
			name:     "doctype and docname",
			doctype:  "Customer",
			docname:  "ABC Corp",
			filename: "contract.pdf",
			policy:   Policy{ParentFolderID: "folder-1"},
			want:     Target{Name: "Customer_ABC Corp_contract.pdf", FolderPath: "folder-1"},
		},
		{
			name:     "doctype only",
			doctype:  "Customer",
			filename: "contract.pdf",
			policy:   Policy{ParentFolderID: "folder-1"},
			want:     Target{Name: "Customer_contract.pdf", FolderPath: "folder-1"},
		},
		{
			name:     "no owning record",
			filename: "photo.jpg",
			policy:   Policy{ParentFolderID: "folder-1"},
			want:     Target{Name: "photo.jpg", FolderPath: "folder-1"},
		},
		{
			name:     "date folders",
			doctype:  "Customer",
			docname:  "ABC Corp",
			filename: "contract.pdf",
			policy:   Policy{ParentFolderID: "folder-1", DateFolders: true},
			want:     Target{Name: "Customer_ABC Corp_contract.pdf", FolderPath: "folder-1/2025/03/07"},
		},
		{
			name:     "date folders without parent are rooted",
			filename: "photo.jpg",
			policy:   Policy{DateFolders: true},
			want:     Target{Name: "photo.jpg", FolderPath: "/2025/03/07"},
		},
		{
			name:     "prefix",
			doctype:  "Invoice",
			docname:  "INV-0001",
			filename: "scan.pdf",
			policy:   Policy{ParentFolderID: "folder-1", Prefix: "erp-"},
			want:     Target{Name: "erp-Invoice_INV-0001_scan.pdf", FolderPath: "folder-1"},
		},
		{
			name:     "special characters stripped",
			doctype:  "Customer",
			docname:  "A/B:C*Corp?",
			filename: "we|ird<na>me.pdf",
			policy:   Policy{ParentFolderID: "folder-1"},
			want:     Target{Name: "Customer_ABCCorp_weirdname.pdf", FolderPath: "folder-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.doctype, tt.docname, tt.filename, tt.policy, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	now := time.Date(2025, 3, 7, 9, 30, 0, 0, time.UTC)
	p := Policy{ParentFolderID: "parent", DateFolders: true, Prefix: "x-"}

	first := Compute("Customer", "ABC Corp", "contract.pdf", p, now)
	second := Compute("Customer", "ABC Corp", "contract.pdf", p, now)

	assert.Equal(t, first, second)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain.pdf", "plain.pdf"},
		{"with space.pdf", "with space.pdf"},
		{"path/../traversal.pdf", "path..traversal.pdf"},
		{"  padded  ", "padded"},
		{"üñïçødé.txt", ".txt"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}
