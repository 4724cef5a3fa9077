package models

// Atelier is one selectable workshop from the static catalog. The catalog is
// read-only reference data, not persisted by this service.
type Atelier struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Level       string `json:"level"`
	Duration    string `json:"duration"`
}
