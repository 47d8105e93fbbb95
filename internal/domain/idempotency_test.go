package domain

import (
	"testing"
	"time"
)

func TestIdempotency_Migration_UniqueScope(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&Idempotency{}, "ux_actor_scope_key") {
		t.Fatalf("expected composite index ux_actor_scope_key")
	}

	now := time.Now().UTC()
	rec := &Idempotency{
		ID: "id-1", ActorID: 7, Scope: "requests", Key: "k1",
		ResourceID: 42, Status: 201, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}

	var got Idempotency
	if err := db.First(&got, "id = ?", "id-1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if got.ActorID != 7 || got.Scope != "requests" || got.ResourceID != 42 || got.Status != 201 {
		t.Fatalf("unexpected row: %+v", got)
	}

	dup := *rec
	dup.ID = "id-2"
	if err := db.Create(&dup).Error; err == nil {
		t.Fatalf("expected UNIQUE violation on (actor_id, scope, key)")
	}

	// Same key under another scope is a different operation.
	other := *rec
	other.ID, other.Scope = "id-3", "requests/1/work-logs"
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("insert other scope: %v", err)
	}
}
