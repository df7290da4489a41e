package mcpserver

// DocumentFormatContract describes the tracker document so LLM consumers
// fill application fields in the formats the tracker sorts and searches on.
const DocumentFormatContract = `# Clovern Document Format

Clovern keeps every job application, folder, and setting in a single JSON
document (job-applications.json). Tools edit it through the tracker; never
write the file directly.

## Applications

| Field         | Format                                   | Notes                              |
|---------------|------------------------------------------|------------------------------------|
| id            | string                                   | assigned by the tracker            |
| company       | string                                   | required                           |
| position      | string                                   |                                    |
| status        | Wishlist, Applied, Interview, Offer, Rejected | defaults to Applied           |
| dateApplied   | YYYY-MM-DD                               | sorts chronologically              |
| deadline      | YYYY-MM-DD                               | empty when unknown                 |
| location      | string                                   | searched                           |
| salary        | free text                                | sorts by its numeric content       |
| link          | URL                                      |                                    |
| notes         | string                                   | searched                           |
| folderId      | folder id or null                        | null means unfiled                 |
| createdAt     | ISO-8601 UTC timestamp                   | assigned by the tracker            |
| updatedAt     | ISO-8601 UTC timestamp                   | bumped on every edit               |
| customFields  | object of custom column id to text value | unknown column ids are dropped     |
| steps         | list of {id, label, completed}           | optional progress checklist        |

## Folders

Folders have an id, a name, a #rrggbb color, an optional wallpaper (a color
or an embedded image data URI), and an order. Deleting a folder unfiles its
applications; it never deletes them.

## Search and Sort

Search is a case-insensitive substring match over company, position, notes,
and location. Sorting by a date column compares dates, salary and number
columns compare their numeric value, and everything else compares text
ignoring case.
`
