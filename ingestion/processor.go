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


package ingestion

import (
	"context"

	"github.com/poiesic/lostfound/core"
)

// processor is an internal interface for one enrichment step of an upload.
// Processors run concurrently and each writes only its own fields of item.
type processor interface {
	// name identifies the processor in logs and errors.
	name() string

	// process enriches item in place.
	process(ctx context.Context, item *core.Item) error
}
