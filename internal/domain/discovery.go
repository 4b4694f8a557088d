package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a discovery task.
// pending -> in_progress -> resolved | failed. Transitions are owned by the
// discovery worker; everyone else only reads Status.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskResolved   TaskStatus = "resolved"
	TaskFailed     TaskStatus = "failed"
)

// DiscoveryTask tracks the background resolution of an ingredient no adapter
// could answer at request time. Tasks are idempotent per IngredientKey.
type DiscoveryTask struct {
	ID            uuid.UUID  `json:"id"`
	IngredientKey string     `json:"ingredientKey"`
	RequestedBy   string     `json:"requestedBy"`
	Status        TaskStatus `json:"status"`
	Attempts      int        `json:"attempts"`
	LastAttemptAt time.Time  `json:"lastAttemptAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NewDiscoveryTask creates a pending task for the given key.
func NewDiscoveryTask(ingredientKey, requestedBy string) *DiscoveryTask {
	now := time.Now().UTC()
	return &DiscoveryTask{
		ID:            uuid.New(),
		IngredientKey: ingredientKey,
		RequestedBy:   requestedBy,
		Status:        TaskPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Active reports whether the task is still owned by the queue. Re-enqueuing
// an active key is a no-op.
func (t *DiscoveryTask) Active() bool {
	return t.Status == TaskPending || t.Status == TaskInProgress
}

// IngredientKey builds the idempotency key for a query: "barcode:<code>" for
// barcode lookups, "text:<normalized name>" otherwise.
func IngredientKey(queryType, value string) string {
	if queryType == "barcode" {
		return "barcode:" + strings.TrimSpace(value)
	}
	return "text:" + NormalizeName(value)
}

// NormalizeName lowercases, trims, and strips punctuation so that spelling
// variants of the same ingredient collide.
func NormalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func (t *DiscoveryTask) String() string {
	return fmt.Sprintf("task %s key=%q status=%s attempts=%d", t.ID, t.IngredientKey, t.Status, t.Attempts)
}
