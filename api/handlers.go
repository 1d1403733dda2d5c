package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/ingestion"
	"github.com/poiesic/lostfound/search"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	q := search.Query{Text: req.Text, TopK: req.TopK}
	if req.Image != "" {
		data, err := decodeImage(req.Image)
		if err != nil {
			writeError(w, r, s.logger, fmt.Errorf("%w: %w", search.ErrInvalidQuery, err))
			return
		}
		q.Image = ai.ImageBytes(data)
	}

	results, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newSearchResponse(results))
}

// handleDetect runs object detection on a multipart "file" without storing
// anything. Empty renditions fall back to the input image.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: no detector configured", ErrDetectionUnavailable))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ingestion.ErrMissingImage, err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	img, err := ai.ImageBytes(data).Resolve()
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	cropped, boxed, err := s.detector.Detect(r.Context(), img)
	if err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ErrDetectionUnavailable, err))
		return
	}
	if cropped.Empty() {
		cropped = img
	}
	if boxed.Empty() {
		boxed = img
	}
	writeJSON(w, http.StatusOK, detectResponse{
		ContentType: img.ContentType,
		Cropped:     dataURL(cropped),
		Boxed:       dataURL(boxed),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	form := uploadForm{
		Title:    strings.TrimSpace(r.FormValue("title")),
		Type:     strings.ToLower(strings.TrimSpace(r.FormValue("type"))),
		Category: strings.TrimSpace(r.FormValue("category")),
	}
	if err := s.validateStruct(form); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ingestion.ErrMissingImage, err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, s.logger, fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	item, err := s.uploader.Upload(r.Context(), ingestion.UploadRequest{
		Title:    form.Title,
		Type:     core.ItemType(form.Type),
		Category: form.Category,
		OwnerID:  user.Id,
		Image:    ai.ImageBytes(data),
	})
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	s.logger.Info("item uploaded", "id", item.Id, "file", header.Filename, "owner", user.Username)
	writeJSON(w, http.StatusCreated, newItemResponse(item))
}

func (s *Server) handleList(itemType core.ItemType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				writeError(w, r, s.logger, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw))
				return
			}
			limit = n
		}

		items, err := s.catalog.ListItemsByType(r.Context(), itemType, limit)
		if err != nil {
			writeError(w, r, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, newItemsResponse(items))
	}
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	item, err := s.catalog.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemResponse(item))
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	id, err := itemID(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	if err := s.catalog.DeleteItem(r.Context(), id, user.Id); err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	user, err := s.catalog.CreateUser(r.Context(), req.Username, req.Email, req.Password, false)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newUserResponse(user))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	var req reportRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, s.logger, err)
		return
	}

	report, err := s.catalog.ReportItem(r.Context(), req.ItemID, user.Id, core.ReportType(req.Type), req.Comment)
	if err != nil {
		writeError(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReportResponse(report))
}

// authenticate checks HTTP Basic credentials.
func (s *Server) authenticate(r *http.Request) (*core.User, error) {
	username, password, ok := r.BasicAuth()
	if !ok {
		return nil, ErrUnauthorized
	}
	return s.catalog.Authenticate(r.Context(), username, password)
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %w", ErrBadRequest, err)
	}
	return s.validateStruct(v)
}

func (s *Server) validateStruct(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrBadRequest, strings.ToLower(fe.Field()), fe.Tag())
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func itemID(r *http.Request) (core.ID, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid item id %q", ErrBadRequest, raw)
	}
	return core.ID(id), nil
}

// decodeImage accepts plain base64 or a data: URL.
func decodeImage(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, errors.New("malformed data URL")
		}
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("image is not valid base64: %w", err)
	}
	return data, nil
}
