package indexer

import (
	"context"
	"testing"

	"github.com/certen-labs/chainkit/pkg/events"
)

func TestNilIndexerIndexBlockIsNoOp(t *testing.T) {
	var idx *Indexer
	flat := []events.FlatEvent{{Path: "0", Status: events.Committed, Event: events.New("transfer")}}
	if err := idx.IndexBlock(context.Background(), 1, flat); err != nil {
		t.Fatalf("nil *Indexer.IndexBlock should be a no-op, got %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("nil *Indexer.Close should be a no-op, got %v", err)
	}
}

func TestIndexerIndexBlockEmptyIsNoOp(t *testing.T) {
	idx := &Indexer{}
	if err := idx.IndexBlock(context.Background(), 1, nil); err != nil {
		t.Fatalf("IndexBlock with no events should be a no-op, got %v", err)
	}
}
