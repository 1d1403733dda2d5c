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


package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SupportedImageTypes lists the MIME types accepted for item images.
var SupportedImageTypes = []string{"image/jpeg", "image/png"}

// ValidateItem validates an Item according to domain rules.
//
// Validation rules:
//   - Title must not be empty (at most 200 characters)
//   - Type must be lost or found
//   - Category at most 64 characters
//   - Original image, when present, must be JPEG or PNG
//   - InsertedAt must not be in the future
//
// NOT validated (populated by the upload pipeline):
//   - TextEmbedding, ImageEmbedding
//   - ID (0 is valid from database sequences)
func ValidateItem(item *Item) error {
	if item == nil {
		return fmt.Errorf("%w: item is nil", ErrInvalidItem)
	}

	if err := validate.Struct(item); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidItem, translate(err))
	}

	if !item.Original.Empty() {
		if err := ValidateContentType(item.Original.ContentType); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidItem, err)
		}
	}

	if !IsValidTimestamp(item.InsertedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidItem, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateUser validates a User's username and email.
func ValidateUser(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidUser)
	}
	if err := validate.Struct(user); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUser, translate(err))
	}
	return nil
}

// ValidateItemType validates that an ItemType has a valid value.
func ValidateItemType(t ItemType) error {
	if t != ItemTypeLost && t != ItemTypeFound {
		return fmt.Errorf("%w: value %q", ErrInvalidItemType, t)
	}
	return nil
}

// ValidateContentType checks that an image MIME type is supported.
func ValidateContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	for _, s := range SupportedImageTypes {
		if ct == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedImage, contentType)
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}

// translate maps validator field errors onto the package sentinels where one
// exists, so callers can keep using errors.Is.
func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Title" && fe.Tag() == "required":
		return ErrEmptyTitle
	case fe.Field() == "Type" && fe.StructNamespace() == "Item.Type":
		return fmt.Errorf("%w: value %q", ErrInvalidItemType, fe.Value())
	}
	return fmt.Errorf("field %s failed %q", fe.Field(), fe.Tag())
}
