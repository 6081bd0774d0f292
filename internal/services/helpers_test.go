package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"budgetwise/internal/delivery"
	"budgetwise/internal/testutil"
)

// may20 is the fixed clock most engine tests run at.
var may20 = time.Date(2024, time.May, 20, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// newBudgetStack wires budget and alert services to the same fixed clock.
func newBudgetStack(db *gorm.DB, now time.Time) (*budgetService, *alertService) {
	alerts := &alertService{db: db, now: fixedClock(now)}
	return &budgetService{db: db, alerts: alerts, now: fixedClock(now)}, alerts
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, testutil.Dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

// recordingDispatcher captures delivered messages.
type recordingDispatcher struct {
	mu       sync.Mutex
	messages []delivery.Message
}

func (d *recordingDispatcher) Deliver(_ context.Context, msg delivery.Message) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, msg)
	return nil
}

func (d *recordingDispatcher) Messages() []delivery.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery.Message(nil), d.messages...)
}
