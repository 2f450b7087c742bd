package domain

// Snapshot is the versioned export artifact for one container. It is a wire
// and file format only, never persisted server-side.
//
// Version 2 bins carry items, notes and embedded photos. Version 1 bins
// instead carry a single freeform Contents string and no photos.
type Snapshot struct {
	Version       int           `json:"version"`
	ExportedAt    string        `json:"exportedAt"`
	ContainerName string        `json:"containerName"`
	Bins          []SnapshotBin `json:"bins"`
	// Photos not embedded under a bin entry; tolerated on input so partial
	// or hand-assembled snapshots still import.
	Photos []LoosePhoto `json:"photos,omitempty"`
}

type SnapshotBin struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name"`
	AreaID    string          `json:"areaId,omitempty"`
	Items     []string        `json:"items,omitempty"`
	Notes     string          `json:"notes,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Icon      string          `json:"icon,omitempty"`
	Color     string          `json:"color,omitempty"`
	ShortCode string          `json:"shortCode,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
	Photos    []SnapshotPhoto `json:"photos,omitempty"`
	Contents  string          `json:"contents,omitempty"` // version 1 only
}

// SnapshotPhoto embeds photo bytes; Data marshals as base64 per
// encoding/json []byte rules.
type SnapshotPhoto struct {
	ID       string `json:"id,omitempty"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

// LoosePhoto is a top-level photo entry referencing its bin by id.
type LoosePhoto struct {
	BinID string `json:"binId"`
	SnapshotPhoto
}

type ImportMode string

const (
	ImportMerge   ImportMode = "merge"
	ImportReplace ImportMode = "replace"
)

type ImportResult struct {
	BinsImported   int `json:"binsImported"`
	BinsSkipped    int `json:"binsSkipped"`
	PhotosImported int `json:"photosImported"`
	PhotosSkipped  int `json:"photosSkipped"`
}
