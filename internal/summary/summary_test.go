package summary

import (
	"testing"

	"github.com/callprofiler/callprofiler/internal/calltree"
	"github.com/callprofiler/callprofiler/internal/event"
	"github.com/callprofiler/callprofiler/internal/testutil"
)

func mustBuild(t *testing.T, events []event.Event) *calltree.Tree {
	t.Helper()
	tree, err := calltree.Build(events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tree
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		events []event.Event
		want   Summary
	}{
		{
			// A runs 100ns on its own, B also spans 100ns but 90 of
			// them belong to its child: A must win.
			name: "exclusive duration beats inclusive duration",
			events: []event.Event{
				{Kind: event.Call, Function: "root", TimestampNS: 0},
				{Kind: event.Call, Function: "a", TimestampNS: 0},
				{Kind: event.Return, Function: "a", TimestampNS: 100},
				{Kind: event.Call, Function: "b", TimestampNS: 100},
				{Kind: event.Call, Function: "c", TimestampNS: 105},
				{Kind: event.Return, Function: "c", TimestampNS: 195},
				{Kind: event.Return, Function: "b", TimestampNS: 200},
				{Kind: event.Return, Function: "root", TimestampNS: 210},
			},
			want: Summary{
				TotalDurationNS: 210,
				FunctionCount:   4,
				Slowest:         1,
				CriticalPath:    []int{0, 1},
			},
		},
		{
			// f exclusive is 5 and g exclusive is 4, but f is the root
			// and roots with descendants are not candidates.
			name: "root is excluded while it has descendants",
			events: []event.Event{
				{Kind: event.Call, Function: "f", TimestampNS: 0},
				{Kind: event.Call, Function: "g", TimestampNS: 1},
				{Kind: event.Return, Function: "g", TimestampNS: 5},
				{Kind: event.Return, Function: "f", TimestampNS: 10},
			},
			want: Summary{
				TotalDurationNS: 10,
				FunctionCount:   2,
				Slowest:         1,
				CriticalPath:    []int{0, 1},
			},
		},
		{
			name: "childless root is its own slowest node",
			events: []event.Event{
				{Kind: event.Call, Function: "f", TimestampNS: 0},
				{Kind: event.Return, Function: "f", TimestampNS: 7},
			},
			want: Summary{
				TotalDurationNS: 7,
				FunctionCount:   1,
				Slowest:         0,
				CriticalPath:    []int{0},
			},
		},
		{
			name: "ties go to the earliest start",
			events: []event.Event{
				{Kind: event.Call, Function: "root", TimestampNS: 0},
				{Kind: event.Call, Function: "a", TimestampNS: 10},
				{Kind: event.Return, Function: "a", TimestampNS: 20},
				{Kind: event.Call, Function: "b", TimestampNS: 30},
				{Kind: event.Return, Function: "b", TimestampNS: 40},
				{Kind: event.Return, Function: "root", TimestampNS: 60},
			},
			want: Summary{
				TotalDurationNS: 60,
				FunctionCount:   3,
				Slowest:         1,
				CriticalPath:    []int{0, 1},
			},
		},
		{
			name: "critical path follows the slowest branch to its node",
			events: []event.Event{
				{Kind: event.Call, Function: "root", TimestampNS: 0},
				{Kind: event.Call, Function: "fast", TimestampNS: 0},
				{Kind: event.Return, Function: "fast", TimestampNS: 10},
				{Kind: event.Call, Function: "slow", TimestampNS: 10},
				{Kind: event.Call, Function: "hot", TimestampNS: 15},
				{Kind: event.Return, Function: "hot", TimestampNS: 95},
				{Kind: event.Return, Function: "slow", TimestampNS: 100},
				{Kind: event.Return, Function: "root", TimestampNS: 100},
			},
			want: Summary{
				TotalDurationNS: 100,
				FunctionCount:   4,
				Slowest:         3,
				CriticalPath:    []int{0, 2, 3},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(mustBuild(t, tt.events))
			if diff := testutil.Diff(tt.want, got); diff != "" {
				t.Fatalf("summary mismatch: %s", diff)
			}
		})
	}
}

func TestExclusiveDurationNS(t *testing.T) {
	tree := mustBuild(t, []event.Event{
		{Kind: event.Call, Function: "f", TimestampNS: 0},
		{Kind: event.Call, Function: "g", TimestampNS: 1},
		{Kind: event.Return, Function: "g", TimestampNS: 5},
		{Kind: event.Return, Function: "f", TimestampNS: 10},
	})
	if got := ExclusiveDurationNS(tree, 0); got != 6 {
		t.Fatalf("expected 6, got %d", got)
	}
	if got := ExclusiveDurationNS(tree, 1); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
}
