package models

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// WallpaperImagePrefix marks a wallpaper holding an embedded image payload.
const WallpaperImagePrefix = "data:image"

// WallpaperTypes are the image types accepted as folder wallpapers.
var WallpaperTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// WallpaperDataURI sniffs the image type of data from its magic bytes and
// encodes it as a data URI. It reports false for anything but WallpaperTypes.
func WallpaperDataURI(data []byte) (string, bool) {
	mime, _, _ := strings.Cut(http.DetectContentType(data), ";")
	if !WallpaperTypes[mime] {
		return "", false
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), true
}

// Folder groups applications in the sidebar.
type Folder struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Wallpaper string `json:"wallpaper,omitempty"`
	CreatedAt string `json:"createdAt"`
	Order     *int   `json:"order,omitempty"`
}

// Rank returns the folder's display rank, or fallback when it has none.
func (f Folder) Rank(fallback int) int {
	if f.Order == nil {
		return fallback
	}
	return *f.Order
}

// WallpaperIsImage reports whether the wallpaper is an embedded image rather than a color.
func (f Folder) WallpaperIsImage() bool {
	return strings.HasPrefix(f.Wallpaper, WallpaperImagePrefix)
}

// FolderColors are the preset folder colors offered to users.
var FolderColors = []string{
	"#3b82f6", "#ef4444", "#10b981", "#f59e0b", "#8b5cf6",
	"#ec4899", "#14b8a6", "#f97316", "#6366f1", "#84cc16",
}
