// Copyright 2026 shelfwise Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package base

import "github.com/juju/errors"

var (
	// ErrUnknownIndex is returned when a dense index was never assigned or an
	// external identifier was never mapped.
	ErrUnknownIndex = errors.New("unknown index")
	// ErrUnknownUser is returned by the serving boundary when a user id has no
	// mapped index and no fallback policy applies.
	ErrUnknownUser = errors.New("cannot recommend: unknown user")
	// ErrDivergence is returned when the training loss becomes non-finite.
	// Training must abort instead of continuing with corrupted weights.
	ErrDivergence = errors.New("training diverged: loss is not finite")
)
