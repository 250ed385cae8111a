// Copyright © 2023 Meroxa, Inc. & Yalantis
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

// Package pipeline sequences the loads and cleanups of one sync run under an error policy.
//
// A connector calls [Pipeline.Stage] for each load and [Pipeline.Cleanup] for each cleanup job.
// Under [FailFast] the first failing stage is returned to the caller, which stops the run.
// Under [ContinueOnError] failures are logged and collected, and [Pipeline.Err] reports them
// once the run is over. Cleanups never stop the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Policy chooses what a failing stage does to the rest of the run.
type Policy int

// The available policies are listed below.
const (
	FailFast Policy = iota
	ContinueOnError
)

const (
	failFastName        = "failFast"
	continueOnErrorName = "continueOnError"
)

func (p Policy) String() string {
	switch p {
	case FailFast:
		return failFastName
	case ContinueOnError:
		return continueOnErrorName
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch {
	case strings.EqualFold(s, failFastName):
		return FailFast, nil
	case strings.EqualFold(s, continueOnErrorName):
		return ContinueOnError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Pipeline runs stages under a [Policy]. It is safe for concurrent use.
type Pipeline struct {
	policy Policy

	mu   sync.Mutex
	errs []error
}

// New creates a new instance of the [Pipeline].
func New(policy Policy) *Pipeline {
	return &Pipeline{policy: policy}
}

// Policy returns the policy the pipeline runs under.
func (p *Pipeline) Policy() Policy {
	return p.policy
}

// Stage runs fn. A failure is returned under [FailFast]; under [ContinueOnError]
// it is logged and collected and Stage returns nil. A canceled context is always returned.
func (p *Pipeline) Stage(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("start stage %q: %w", name, err)
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}

	stageErr := &StageError{Stage: name, Err: err}

	if p.policy == FailFast || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return stageErr
	}

	zerolog.Ctx(ctx).Error().Err(err).Str("stage", name).Msg("stage failed, continuing")
	p.record(stageErr)

	return nil
}

// Cleanup runs fn regardless of the policy. A failure is logged and collected,
// so later cleanups still run.
func (p *Pipeline) Cleanup(ctx context.Context, name string, fn func(context.Context) error) {
	if err := ctx.Err(); err != nil {
		p.record(&StageError{Stage: name, Err: err})

		return
	}

	if err := fn(ctx); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("cleanup", name).Msg("cleanup failed")
		p.record(&StageError{Stage: name, Err: err})

		return
	}

	zerolog.Ctx(ctx).Debug().Str("cleanup", name).Msg("cleanup finished")
}

// Err joins the collected failures, nil if there were none.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return errors.Join(p.errs...)
}

func (p *Pipeline) record(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.errs = append(p.errs, err)
}
