package api

import (
	"bytes"
	"encoding/base64"
	"time"

	"github.com/poiesic/lostfound/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

type searchRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	TopK  int    `json:"top_k" validate:"gte=0,lte=100"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,alphanum,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type reportRequest struct {
	ItemID  core.ID `json:"item_id" validate:"required"`
	Type    string  `json:"type" validate:"required,oneof=spam scam inappropriate other"`
	Comment string  `json:"comment" validate:"max=500"`
}

type uploadForm struct {
	Title    string `validate:"required,max=200"`
	Type     string `validate:"required,oneof=lost found"`
	Category string `validate:"max=64"`
}

type itemResponse struct {
	ID         core.ID   `json:"id"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	Image      string    `json:"image,omitempty"`
	BoxedImage string    `json:"boxed_image,omitempty"`
	InsertedAt time.Time `json:"inserted_at"`
}

type searchResultResponse struct {
	itemResponse
	Owner      string    `json:"owner"`
	Similarity float64   `json:"similarity"`
	QueryHead  []float32 `json:"query_head,omitempty"`
	ItemHead   []float32 `json:"item_head,omitempty"`
}

type searchResponse struct {
	Results []searchResultResponse `json:"results"`
}

type itemsResponse struct {
	Items []itemResponse `json:"items"`
}

type detectResponse struct {
	ContentType string `json:"content_type"`
	Cropped     string `json:"cropped"`
	Boxed       string `json:"boxed"`
}

type reportResponse struct {
	ID           core.ID   `json:"id"`
	ItemID       core.ID   `json:"item_id"`
	Type         string    `json:"type"`
	ReportedUser string    `json:"reported_user"`
	InsertedAt   time.Time `json:"inserted_at"`
}

type userResponse struct {
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Admin      bool      `json:"admin"`
	InsertedAt time.Time `json:"inserted_at"`
}

// dataURL renders img as a data: URL, or "" for an empty image.
func dataURL(img core.Image) string {
	if img.Empty() {
		return ""
	}
	return "data:" + img.ContentType + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

func newItemResponse(item *core.Item) itemResponse {
	resp := itemResponse{
		ID:         item.Id,
		Title:      item.Title,
		Type:       string(item.Type),
		Category:   item.Category,
		Image:      dataURL(item.DisplayImage()),
		InsertedAt: item.InsertedAt,
	}
	if !item.Boxed.Empty() && !bytes.Equal(item.Boxed.Data, item.Original.Data) {
		resp.BoxedImage = dataURL(item.Boxed)
	}
	return resp
}

func newSearchResponse(results []*core.SearchResult) searchResponse {
	resp := searchResponse{Results: make([]searchResultResponse, 0, len(results))}
	for _, r := range results {
		resp.Results = append(resp.Results, searchResultResponse{
			itemResponse: newItemResponse(r.Item),
			Owner:        r.Owner,
			Similarity:   r.Score,
			QueryHead:    r.QueryHead,
			ItemHead:     r.ItemHead,
		})
	}
	return resp
}

func newItemsResponse(items []*core.Item) itemsResponse {
	resp := itemsResponse{Items: make([]itemResponse, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, newItemResponse(item))
	}
	return resp
}

func newUserResponse(u *core.User) userResponse {
	return userResponse{
		Username:   u.Username,
		Email:      u.Email,
		Admin:      u.Admin,
		InsertedAt: u.InsertedAt,
	}
}

func newReportResponse(r *core.Report) reportResponse {
	return reportResponse{
		ID:           r.Id,
		ItemID:       r.ItemID,
		Type:         string(r.Type),
		ReportedUser: r.ReportedUsername,
		InsertedAt:   r.InsertedAt,
	}
}
