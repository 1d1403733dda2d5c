// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/lostfound"
	"github.com/poiesic/lostfound/ai"
	"github.com/poiesic/lostfound/core"
	"github.com/poiesic/lostfound/ingestion"
	"github.com/poiesic/lostfound/search"
	"github.com/poiesic/lostfound/storage"
)

var (
	// ErrBadRequest marks malformed requests that fail before reaching the domain.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized indicates missing credentials.
	ErrUnauthorized = errors.New("authentication required")

	// ErrDetectionUnavailable indicates no detector is configured or it failed.
	ErrDetectionUnavailable = errors.New("object detection unavailable")
)

// statusFor maps a domain error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, search.ErrInvalidQuery),
		errors.Is(err, core.ErrInvalidItem),
		errors.Is(err, core.ErrInvalidUser),
		errors.Is(err, core.ErrInvalidReport),
		errors.Is(err, core.ErrEmptyTitle),
		errors.Is(err, core.ErrInvalidItemType),
		errors.Is(err, core.ErrUnsupportedImage),
		errors.Is(err, core.ErrWeakPassword),
		errors.Is(err, core.ErrPasswordTooLong),
		errors.Is(err, ai.ErrEmptyImage),
		errors.Is(err, ingestion.ErrMissingImage),
		errors.Is(err, ingestion.ErrUnknownOwner):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, lostfound.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, search.ErrEmbeddingUnavailable),
		errors.Is(err, search.ErrRetrievalUnavailable),
		errors.Is(err, ingestion.ErrEmbeddingFailed),
		errors.Is(err, ErrDetectionUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the JSON error body. Internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := statusFor(err)
	message := err.Error()

	switch {
	case status == http.StatusInternalServerError:
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		message = http.StatusText(status)
	case status == http.StatusServiceUnavailable:
		logger.Warn("dependency unavailable", "method", r.Method, "path", r.URL.Path, "err", err)
	case status == http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", `Basic realm="lostfound"`)
	}

	writeJSON(w, status, errorResponse{Error: message})
}
