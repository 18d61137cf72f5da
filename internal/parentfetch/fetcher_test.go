package parentfetch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/lunexa/zimlaw-orchestrator/internal/model"
)

type fakeStore struct {
	docs map[string]model.ParentDocument
	fail map[string]bool
}

func (f *fakeStore) Get(_ context.Context, docID string) ([]byte, error) {
	if f.fail[docID] {
		return nil, errors.New("object not found")
	}
	doc, ok := f.docs[docID]
	if !ok {
		return nil, errors.New("object not found")
	}
	return json.Marshal(doc)
}

func TestFetcher_FetchBatch_DedupsAndResolves(t *testing.T) {
	store := &fakeStore{docs: map[string]model.ParentDocument{
		"p1": {ID: "p1", Title: "Labour Act"},
		"p2": {ID: "p2", Title: "Constitution"},
	}}
	f := NewFetcher(store, 4)

	results := []model.RetrievalResult{
		{ParentDocID: "p1"},
		{ParentDocID: "p1"},
		{ParentDocID: "p2"},
	}
	resolved := f.FetchBatch(context.Background(), results)
	if len(resolved) != 2 {
		t.Fatalf("expected 2 unique resolved parents, got %d", len(resolved))
	}
	if resolved["p1"].Title != "Labour Act" {
		t.Fatalf("unexpected title for p1: %q", resolved["p1"].Title)
	}
}

func TestFetcher_FetchBatch_PartialFailureDegrades(t *testing.T) {
	store := &fakeStore{
		docs: map[string]model.ParentDocument{"p1": {ID: "p1", Title: "Labour Act"}},
		fail: map[string]bool{"p2": true},
	}
	f := NewFetcher(store, 4)

	results := []model.RetrievalResult{{ParentDocID: "p1"}, {ParentDocID: "p2"}}
	resolved := f.FetchBatch(context.Background(), results)
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved parent after partial failure, got %d", len(resolved))
	}
	if _, ok := resolved["p1"]; !ok {
		t.Fatal("expected p1 to resolve despite p2 failing")
	}
}

func TestBuildBundledContext_TruncatesExcerpt(t *testing.T) {
	longContent := strings.Repeat("a", excerptMaxChars+500)
	results := []model.RetrievalResult{
		{Chunk: model.Chunk{ID: "c1", Content: longContent, DocType: model.DocTypeAct}, ParentDocID: "p1", Confidence: 0.9},
	}
	parents := map[string]model.ParentDocument{"p1": {ID: "p1", Title: "Labour Act"}}

	items := BuildBundledContext(results, parents)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if len(items[0].Excerpt) != excerptMaxChars {
		t.Fatalf("expected excerpt truncated to %d chars, got %d", excerptMaxChars, len(items[0].Excerpt))
	}
	if items[0].Title != "Labour Act" {
		t.Fatalf("unexpected title: %q", items[0].Title)
	}
}

func TestBuildBundledContext_MissingParentFallsBackToEmptyTitle(t *testing.T) {
	results := []model.RetrievalResult{
		{Chunk: model.Chunk{ID: "c1", Content: "short"}, ParentDocID: "p-missing"},
	}
	items := BuildBundledContext(results, map[string]model.ParentDocument{})
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "" {
		t.Fatalf("expected empty title for unresolved parent, got %q", items[0].Title)
	}
	if items[0].Excerpt != "short" {
		t.Fatalf("expected excerpt unchanged for short content, got %q", items[0].Excerpt)
	}
}
