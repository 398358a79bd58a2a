package usecase

import (
	"context"
	"errors"
	"testing"
)

type expandOracleFake struct {
	response string
	err      error
	calls    int
}

func (f *expandOracleFake) Complete(context.Context, string) (string, error) {
	f.calls++
	return f.response, f.err
}

type topicGraphFake struct {
	expansions map[string][]string
	saved      map[string][]string
	err        error
}

func (f *topicGraphFake) Expansions(_ context.Context, topic string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.expansions[topic], nil
}

func (f *topicGraphFake) SaveExpansion(_ context.Context, topic string, subtopics []string) error {
	if f.saved == nil {
		f.saved = map[string][]string{}
	}
	f.saved[topic] = subtopics
	return f.err
}

func TestExpandParsesCommaList(t *testing.T) {
	oracle := &expandOracleFake{response: "FCFS, SJF, Round Robin , Priority, Multilevel Queue, Aging"}
	expander := NewTopicExpander(oracle, nil)

	got := expander.Expand(context.Background(), "CPU Scheduling", 5)
	if len(got) != 5 {
		t.Fatalf("expected truncation to 5, got %d: %v", len(got), got)
	}
	if got[2] != "Round Robin" {
		t.Fatalf("entries not trimmed: %q", got[2])
	}
}

func TestExpandOracleFailureReturnsEmpty(t *testing.T) {
	expander := NewTopicExpander(&expandOracleFake{err: errors.New("down")}, nil)
	if got := expander.Expand(context.Background(), "topic", 5); len(got) != 0 {
		t.Fatalf("expected empty on oracle failure, got %v", got)
	}
}

func TestExpandServedFromGraphCache(t *testing.T) {
	oracle := &expandOracleFake{response: "should, not, be, called"}
	graph := &topicGraphFake{expansions: map[string][]string{"Paging": {"TLB", "Page Tables"}}}
	expander := NewTopicExpander(oracle, graph)

	got := expander.Expand(context.Background(), "Paging", 5)
	if len(got) != 2 || got[0] != "TLB" {
		t.Fatalf("cache not used: %v", got)
	}
	if oracle.calls != 0 {
		t.Fatalf("oracle called despite cache hit")
	}
}

func TestExpandGraphFailureDegradesToOracle(t *testing.T) {
	oracle := &expandOracleFake{response: "A, B"}
	graph := &topicGraphFake{err: errors.New("neo4j down")}
	expander := NewTopicExpander(oracle, graph)

	got := expander.Expand(context.Background(), "topic", 5)
	if len(got) != 2 {
		t.Fatalf("graph failure not degraded to oracle: %v", got)
	}
}

func TestExpandSavesToGraph(t *testing.T) {
	oracle := &expandOracleFake{response: "A, B"}
	graph := &topicGraphFake{}
	expander := NewTopicExpander(oracle, graph)

	expander.Expand(context.Background(), "topic", 5)
	if len(graph.saved["topic"]) != 2 {
		t.Fatalf("expansion not persisted: %v", graph.saved)
	}
}
