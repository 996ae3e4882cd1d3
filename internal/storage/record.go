package storage

import (
	"github.com/graphmark/graphmark/internal/accm"
	"github.com/graphmark/graphmark/internal/document"
)

// Record is one stored document plus its bucket coordinates.
type Record struct {
	ID       string
	Database string
	TypeName string
	Kind     accm.GraphKind
	Doc      document.Object
}
