package tracker

import (
	"slices"

	"github.com/starford/clovern/internal/models"
)

// normalize restores the document invariants on a freshly loaded document:
// folders ranked densely from 0 in their stored order, unique application
// ids, no dangling folder references, and custom field keys limited to the
// active custom columns. Empty or repeated application ids are replaced
// with ids from uniqueID; the first holder of an id keeps it.
func normalize(doc *models.Document, uniqueID func(taken func(string) bool) string) *models.Document {
	if doc == nil {
		doc = models.NewDocument()
	}
	out := doc.Clone()

	type ranked struct {
		folder models.Folder
		rank   int
	}
	rankedFolders := make([]ranked, len(out.Folders))
	for i, f := range out.Folders {
		rankedFolders[i] = ranked{folder: f, rank: f.Rank(i)}
	}
	slices.SortStableFunc(rankedFolders, func(a, b ranked) int { return a.rank - b.rank })

	folders := make([]models.Folder, 0, len(rankedFolders))
	seen := make(map[string]bool, len(rankedFolders))
	for _, r := range rankedFolders {
		if r.folder.ID == "" || seen[r.folder.ID] {
			continue
		}
		seen[r.folder.ID] = true
		folders = append(folders, r.folder)
	}
	renumber(folders)
	out.Folders = folders

	taken := make(map[string]bool, len(out.Applications))
	for _, a := range out.Applications {
		taken[a.ID] = true
	}
	claimed := make(map[string]bool, len(out.Applications))
	active := activeColumns(out.Settings)
	for i := range out.Applications {
		a := &out.Applications[i]
		if a.ID == "" || claimed[a.ID] {
			a.ID = uniqueID(func(id string) bool { return taken[id] })
			taken[a.ID] = true
		}
		claimed[a.ID] = true
		if a.FolderID != nil && !seen[*a.FolderID] {
			a.FolderID = nil
		}
		a.CustomFields = pruneCustomFields(a.CustomFields, active)
	}
	if out.Settings.VisibleColumns == nil {
		out.Settings.VisibleColumns = []string{}
	}
	return out
}

// renumber sets every folder's order to its position.
func renumber(folders []models.Folder) {
	for i := range folders {
		order := i
		folders[i].Order = &order
	}
}

func activeColumns(s models.Settings) map[string]bool {
	active := make(map[string]bool, len(s.CustomColumns))
	for _, c := range s.CustomColumns {
		active[c.ID] = true
	}
	return active
}

func pruneCustomFields(fields models.CustomFields, active map[string]bool) models.CustomFields {
	if fields == nil {
		return nil
	}
	out := make(models.CustomFields, len(fields))
	for k, v := range fields {
		if active[k] {
			out[k] = v
		}
	}
	return out
}
