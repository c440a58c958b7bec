// Smart Discovery - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/smartdiscovery

package catalog

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type fakeSearcher struct {
	ids   map[string]int
	calls map[string]int
	err   error
}

func (f *fakeSearcher) SearchKeyword(_ context.Context, query string) (int, bool, error) {
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[query]++
	if f.err != nil {
		return 0, false, f.err
	}
	id, ok := f.ids[query]
	return id, ok, nil
}

func TestKeywordResolverCachesHitsAndMisses(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{ids: map[string]int{"heist": 10051}}
	r := NewKeywordResolver(s, 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, ok, err := r.Resolve(ctx, "  Heist ")
		if err != nil || !ok || id != 10051 {
			t.Fatalf("Resolve(heist) = %d, %v, %v", id, ok, err)
		}
		if _, ok, _ := r.Resolve(ctx, "unknown"); ok {
			t.Fatal("Resolve(unknown) should miss")
		}
	}
	if s.calls["heist"] != 1 || s.calls["unknown"] != 1 {
		t.Errorf("calls = %v, want one search per keyword", s.calls)
	}
}

func TestKeywordResolverEvictsAtCapacity(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{ids: map[string]int{"a": 1, "b": 2, "c": 3}}
	r := NewKeywordResolver(s, 2)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if _, _, err := r.Resolve(ctx, k); err != nil {
			t.Fatal(err)
		}
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
	// "a" was least recently used and must be searched again.
	_, _, _ = r.Resolve(ctx, "a")
	if s.calls["a"] != 2 {
		t.Errorf("calls[a] = %d, want 2", s.calls["a"])
	}
}

func TestKeywordResolverErrorsAreNotCached(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{err: errors.New("boom")}
	r := NewKeywordResolver(s, 10)
	if _, _, err := r.Resolve(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	if r.Len() != 0 {
		t.Errorf("Len() = %d, want 0", r.Len())
	}
}

func TestResolveAll(t *testing.T) {
	t.Parallel()

	s := &fakeSearcher{ids: map[string]int{"spy": 425, "heist": 10051}}
	r := NewKeywordResolver(s, 10)
	ids, err := r.ResolveAll(context.Background(), []string{"spy", "nope", "heist", ""})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []int{425, 10051}) {
		t.Errorf("ids = %v", ids)
	}
}
