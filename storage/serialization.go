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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/lostfound/core"
)

// codecVersion prefixes every encoded record.
const codecVersion uint64 = 1

// writer appends mus-encoded values to a growing buffer.
type writer struct {
	buf []byte
}

func put[T any](w *writer, ser mus.Serializer[T], v T) {
	size := ser.Size(v)
	n := len(w.buf)
	if cap(w.buf)-n < size {
		grown := make([]byte, n, 2*cap(w.buf)+size)
		copy(grown, w.buf)
		w.buf = grown
	}
	w.buf = w.buf[:n+size]
	ser.Marshal(v, w.buf[n:])
}

func (w *writer) bytes(b []byte) {
	put(w, varint.Uint64, uint64(len(b)))
	w.buf = append(w.buf, b...)
}

func (w *writer) vector(v []float32) {
	put(w, varint.Uint64, uint64(len(v)))
	for _, f := range v {
		put(w, raw.Float32, f)
	}
}

func (w *writer) time(t time.Time) {
	if t.IsZero() {
		put(w, varint.Int64, 0)
		return
	}
	put(w, varint.Int64, t.UnixNano())
}

// reader consumes mus-encoded values. The first error sticks.
type reader struct {
	bs  []byte
	err error
}

func get[T any](r *reader, ser mus.Serializer[T]) (v T) {
	if r.err != nil {
		return v
	}
	v, n, err := ser.Unmarshal(r.bs)
	if err != nil {
		r.err = err
		return v
	}
	r.bs = r.bs[n:]
	return v
}

func (r *reader) length() int {
	l := get(r, varint.Uint64)
	if r.err == nil && l > uint64(len(r.bs)) {
		r.err = ErrTruncatedData
	}
	return int(l)
}

func (r *reader) bytes() []byte {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	b := make([]byte, l)
	copy(b, r.bs[:l])
	r.bs = r.bs[l:]
	return b
}

func (r *reader) vector() []float32 {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]float32, l)
	for i := range v {
		v[i] = get(r, raw.Float32)
	}
	return v
}

func (r *reader) time() time.Time {
	ns := get(r, varint.Int64)
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns).UTC()
}

func (r *reader) version() {
	v := get(r, varint.Uint64)
	if r.err == nil && v != codecVersion {
		r.err = fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
}

func (r *reader) finish() error {
	if r.err != nil {
		return fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return nil
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(id), err
}

func (w *writer) image(img core.Image) {
	put(w, ord.String, img.ContentType)
	w.bytes(img.Data)
}

func (r *reader) image() core.Image {
	return core.Image{
		ContentType: get(r, ord.String),
		Data:        r.bytes(),
	}
}

// MarshalItem serializes an Item, including its embeddings and images, to bytes.
func MarshalItem(item *core.Item) []byte {
	w := &writer{buf: make([]byte, 0, 256+len(item.Original.Data)+len(item.Cropped.Data)+len(item.Boxed.Data))}
	put(w, varint.Uint64, codecVersion)
	put(w, varint.Uint64, uint64(item.Id))
	put(w, ord.String, item.Title)
	put(w, ord.String, string(item.Type))
	put(w, ord.String, item.Category)
	put(w, varint.Uint64, uint64(item.OwnerID))
	w.image(item.Cropped)
	w.image(item.Boxed)
	w.image(item.Original)
	w.vector(item.TextEmbedding)
	w.vector(item.ImageEmbedding)
	w.time(item.InsertedAt)
	w.time(item.UpdatedAt)
	return w.buf
}

// UnmarshalItem deserializes an Item from bytes.
func UnmarshalItem(data []byte) (*core.Item, error) {
	r := &reader{bs: data}
	r.version()
	item := &core.Item{
		Id:       core.ID(get(r, varint.Uint64)),
		Title:    get(r, ord.String),
		Type:     core.ItemType(get(r, ord.String)),
		Category: get(r, ord.String),
		OwnerID:  core.ID(get(r, varint.Uint64)),
	}
	item.Cropped = r.image()
	item.Boxed = r.image()
	item.Original = r.image()
	item.TextEmbedding = r.vector()
	item.ImageEmbedding = r.vector()
	item.InsertedAt = r.time()
	item.UpdatedAt = r.time()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return item, nil
}

// MarshalUser serializes a User to bytes.
func MarshalUser(user *core.User) []byte {
	w := &writer{buf: make([]byte, 0, 128)}
	put(w, varint.Uint64, codecVersion)
	put(w, varint.Uint64, uint64(user.Id))
	put(w, ord.String, user.Username)
	put(w, ord.String, user.Email)
	w.bytes(user.PasswordHash)
	put(w, ord.Bool, user.Admin)
	w.time(user.InsertedAt)
	return w.buf
}

// UnmarshalUser deserializes a User from bytes.
func UnmarshalUser(data []byte) (*core.User, error) {
	r := &reader{bs: data}
	r.version()
	user := &core.User{
		Id:       core.ID(get(r, varint.Uint64)),
		Username: get(r, ord.String),
		Email:    get(r, ord.String),
	}
	user.PasswordHash = r.bytes()
	user.Admin = get(r, ord.Bool)
	user.InsertedAt = r.time()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return user, nil
}

// MarshalReport serializes a Report to bytes.
func MarshalReport(report *core.Report) []byte {
	w := &writer{buf: make([]byte, 0, 128+len(report.Comment))}
	put(w, varint.Uint64, codecVersion)
	put(w, varint.Uint64, uint64(report.Id))
	put(w, varint.Uint64, uint64(report.ItemID))
	put(w, varint.Uint64, uint64(report.ReporterID))
	put(w, varint.Uint64, uint64(report.ReportedUserID))
	put(w, ord.String, string(report.Type))
	put(w, ord.String, report.Comment)
	put(w, ord.String, report.ReportedUsername)
	put(w, ord.String, report.ItemTitle)
	w.time(report.InsertedAt)
	return w.buf
}

// UnmarshalReport deserializes a Report from bytes.
func UnmarshalReport(data []byte) (*core.Report, error) {
	r := &reader{bs: data}
	r.version()
	report := &core.Report{
		Id:               core.ID(get(r, varint.Uint64)),
		ItemID:           core.ID(get(r, varint.Uint64)),
		ReporterID:       core.ID(get(r, varint.Uint64)),
		ReportedUserID:   core.ID(get(r, varint.Uint64)),
		Type:             core.ReportType(get(r, ord.String)),
		Comment:          get(r, ord.String),
		ReportedUsername: get(r, ord.String),
		ItemTitle:        get(r, ord.String),
	}
	report.InsertedAt = r.time()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return report, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	w := &writer{buf: make([]byte, 0, 64)}
	put(w, varint.Uint64, codecVersion)
	put(w, ord.String, checkpoint.ProcessorType)
	put(w, varint.Uint64, uint64(checkpoint.LastID))
	put(w, varint.Int64, checkpoint.Processed)
	w.time(checkpoint.UpdatedAt)
	return w.buf
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := &reader{bs: data}
	r.version()
	checkpoint := &core.Checkpoint{
		ProcessorType: get(r, ord.String),
		LastID:        core.ID(get(r, varint.Uint64)),
		Processed:     get(r, varint.Int64),
	}
	checkpoint.UpdatedAt = r.time()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return checkpoint, nil
}
