package interfaces

import "form_filler/domain/entities"

// DataSource loads the rows to fill.
type DataSource interface {
	// Load reads path and keeps at most limit rows (0 keeps all)
	Load(path string, limit int) (*entities.Dataset, error)
}
