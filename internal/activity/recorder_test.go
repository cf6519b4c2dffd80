package activity

import (
	"context"
	"sync"
	"testing"
	"time"
)

// mockInserter records all batches that were inserted.
type mockInserter struct {
	mu       sync.Mutex
	batches  [][]Event
	insertFn func(ctx context.Context, events []Event) error
}

func (m *mockInserter) BatchInsert(ctx context.Context, events []Event) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, events)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Event, len(events))
	copy(cp, events)
	m.batches = append(m.batches, cp)
	return nil
}

func (m *mockInserter) totalInserted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func sampleEvent(action string) Event {
	return Event{
		ActorID:    "9f0c2e4a-1b7d-4c3e-8a52-0d6f1e9b3c7a",
		Action:     action,
		ObjectType: ObjectRelationship,
		ObjectID:   "rel-1",
		OccurredAt: time.Now(),
	}
}

func TestRecorder_RecordAddsToBuffer(t *testing.T) {
	mi := &mockInserter{}
	r := NewRecorder(mi, 100, time.Hour) // large batch size, long interval

	r.Record(sampleEvent(ActionRelationshipCreated))
	r.Record(sampleEvent(ActionRelationshipUpdated))

	r.mu.Lock()
	bufLen := len(r.buffer)
	r.mu.Unlock()

	if bufLen != 2 {
		t.Fatalf("expected buffer length 2, got %d", bufLen)
	}

	if mi.totalInserted() != 0 {
		t.Fatalf("expected 0 inserted before flush, got %d", mi.totalInserted())
	}
}

func TestRecorder_StampsOccurredAt(t *testing.T) {
	mi := &mockInserter{}
	r := NewRecorder(mi, 100, time.Hour)

	r.Record(Event{ActorID: "a", Action: ActionUserUpdated, ObjectType: ObjectUser, ObjectID: "a"})

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buffer) != 1 {
		t.Fatalf("expected buffer length 1, got %d", len(r.buffer))
	}
	if r.buffer[0].OccurredAt.IsZero() {
		t.Error("expected OccurredAt to be stamped")
	}
}

func TestRecorder_FlushOnBatchSize(t *testing.T) {
	tests := []struct {
		name      string
		batchSize int
		records   int
		wantFlush int // number of total events flushed
	}{
		{
			name:      "exact batch size triggers flush",
			batchSize: 3,
			records:   3,
			wantFlush: 3,
		},
		{
			name:      "under batch size does not flush",
			batchSize: 5,
			records:   3,
			wantFlush: 0,
		},
		{
			name:      "double batch size triggers two flushes",
			batchSize: 2,
			records:   4,
			wantFlush: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mi := &mockInserter{}
			r := NewRecorder(mi, tt.batchSize, time.Hour)

			for i := 0; i < tt.records; i++ {
				r.Record(sampleEvent(ActionInvitationCreated))
			}

			// Allow any concurrent flush goroutine to complete.
			time.Sleep(50 * time.Millisecond)

			got := mi.totalInserted()
			if got != tt.wantFlush {
				t.Errorf("expected %d flushed events, got %d", tt.wantFlush, got)
			}
		})
	}
}

func TestRecorder_StopDoesFinalFlush(t *testing.T) {
	mi := &mockInserter{}
	r := NewRecorder(mi, 100, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Start(ctx)

	r.Record(sampleEvent(ActionRelationshipCreated))
	r.Record(sampleEvent(ActionRelationshipDeleted))
	r.Record(sampleEvent(ActionInvitationRevoked))

	// Stop triggers a final flush.
	r.Stop()

	// Give the goroutine a moment to process the final flush.
	time.Sleep(100 * time.Millisecond)

	got := mi.totalInserted()
	if got != 3 {
		t.Fatalf("expected 3 events after Stop, got %d", got)
	}
}

func TestRecorder_TimerFlush(t *testing.T) {
	mi := &mockInserter{}
	r := NewRecorder(mi, 100, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Start(ctx)

	r.Record(sampleEvent(ActionInvitationAccepted))

	// Wait for the flush interval to fire.
	time.Sleep(200 * time.Millisecond)

	got := mi.totalInserted()
	if got != 1 {
		t.Fatalf("expected 1 event after timer flush, got %d", got)
	}

	r.Stop()
}

func TestRecorder_ConcurrentRecords(t *testing.T) {
	mi := &mockInserter{}
	r := NewRecorder(mi, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go r.Start(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(sampleEvent(ActionRelationshipCreated))
		}()
	}
	wg.Wait()

	r.Stop()
	time.Sleep(100 * time.Millisecond)

	got := mi.totalInserted()
	if got != 50 {
		t.Fatalf("expected 50 events, got %d", got)
	}
}
