// HistoryData is a paginated response payload for the classification history.
package dto

type HistoryData struct {
	Entries     []HistoryEntry `json:"entries"`
	ImagesDir   string         `json:"imagesDir"`
	Size        int64          `json:"size"`
	Length      int            `json:"length"`
	TotalPages  int            `json:"totalPages"`
	CurrentPage int            `json:"currentPage"`
	Limit       int            `json:"pageSize"`
}
