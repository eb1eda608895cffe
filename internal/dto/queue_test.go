package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prohmpiriya/queue-rush/internal/domain"
)

func TestQueueEntryResponse_Keys(t *testing.T) {
	join := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	entry := &domain.QueueEntry{ID: "e1", Name: "Alice", ServiceType: domain.ServicePayment, JoinTime: join}

	resp := ToQueueEntryResponse(entry, join.Add(1500*time.Millisecond))
	if resp.WaitTime != 1500 {
		t.Errorf("WaitTime = %d, want 1500", resp.WaitTime)
	}

	data, _ := json.Marshal(resp)
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"_id", "id", "name", "serviceType", "joinTime", "waitTime", "createdAt", "updatedAt"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q in %s", k, data)
		}
	}
}
