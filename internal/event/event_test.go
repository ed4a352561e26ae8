package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "CycleStarted", typ: CycleStarted},
		{want: "CycleComplete", typ: CycleComplete},
		{want: "DirCreated", typ: DirCreated},
		{want: "FileCopied", typ: FileCopied},
		{want: "FileUpdated", typ: FileUpdated},
		{want: "FileFailed", typ: FileFailed},
		{want: "SymlinkCopied", typ: SymlinkCopied},
		{want: "FileDeleted", typ: FileDeleted},
		{want: "DirDeleted", typ: DirDeleted},
		{want: "DirPruned", typ: DirPruned},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}
