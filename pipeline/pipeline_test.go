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

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{in: "failFast", want: FailFast},
		{in: "FAILFAST", want: FailFast},
		{in: "continueOnError", want: ContinueOnError},
		{in: "retry", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			is := is.New(t)

			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				is.True(errors.Is(err, ErrUnknownPolicy))

				return
			}

			is.NoErr(err)
			is.Equal(got, tt.want)
			is.True(strings.EqualFold(got.String(), tt.in))
		})
	}
}

func TestPipeline_Stage_failFast(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	p := New(FailFast)
	loadErr := errors.New("deadlock")

	err := p.Stage(context.Background(), "load AWSUser", func(context.Context) error { return loadErr })
	is.True(errors.Is(err, loadErr))

	var stageErr *StageError
	is.True(errors.As(err, &stageErr))
	is.Equal(stageErr.Stage, "load AWSUser")

	// returned errors are not collected
	is.NoErr(p.Err())
}

func TestPipeline_Stage_continueOnError(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	var buf bytes.Buffer
	ctx := zerolog.New(&buf).WithContext(context.Background())

	p := New(ContinueOnError)
	first := errors.New("first")
	second := errors.New("second")

	var ran []string

	for _, stage := range []struct {
		name string
		err  error
	}{
		{name: "users", err: first},
		{name: "groups"},
		{name: "roles", err: second},
	} {
		is.NoErr(p.Stage(ctx, stage.name, func(context.Context) error {
			ran = append(ran, stage.name)

			return stage.err
		}))
	}

	is.Equal(ran, []string{"users", "groups", "roles"})

	err := p.Err()
	is.True(errors.Is(err, first))
	is.True(errors.Is(err, second))
	is.True(strings.Contains(buf.String(), `"stage":"users"`))
}

func TestPipeline_Stage_canceled(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(ContinueOnError)

	called := false
	err := p.Stage(ctx, "users", func(context.Context) error {
		called = true

		return nil
	})
	is.True(errors.Is(err, context.Canceled))
	is.True(!called)

	err = New(ContinueOnError).Stage(context.Background(), "users", func(context.Context) error {
		return context.DeadlineExceeded
	})
	is.True(errors.Is(err, context.DeadlineExceeded))
}

func TestPipeline_Cleanup_isolated(t *testing.T) {
	t.Parallel()

	is := is.New(t)

	p := New(FailFast)
	sweepErr := errors.New("sweep failed")

	var ran []string

	p.Cleanup(context.Background(), "cleanup AWSUser", func(context.Context) error {
		ran = append(ran, "AWSUser")

		return sweepErr
	})
	p.Cleanup(context.Background(), "cleanup AWSGroup", func(context.Context) error {
		ran = append(ran, "AWSGroup")

		return nil
	})

	is.Equal(ran, []string{"AWSUser", "AWSGroup"})
	is.True(errors.Is(p.Err(), sweepErr))
}
