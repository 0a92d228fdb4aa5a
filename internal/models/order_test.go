package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"processing to confirmed", OrderStatusProcessing, OrderStatusConfirmed, true},
		{"processing to cancelled", OrderStatusProcessing, OrderStatusCancelled, true},
		{"processing to delivered", OrderStatusProcessing, OrderStatusDelivered, false},
		{"confirmed to confirmed", OrderStatusConfirmed, OrderStatusConfirmed, true},
		{"confirmed to delivered", OrderStatusConfirmed, OrderStatusDelivered, true},
		{"confirmed to processing", OrderStatusConfirmed, OrderStatusProcessing, false},
		{"delivered to confirmed", OrderStatusDelivered, OrderStatusConfirmed, false},
		{"cancelled to confirmed", OrderStatusCancelled, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusConfirmed.IsTerminal())
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
}

func TestOrderOwnerEmail(t *testing.T) {
	o := &Order{}
	assert.Empty(t, o.OwnerEmail())

	o.User = &User{Email: "traveler@example.com"}
	assert.Equal(t, "traveler@example.com", o.OwnerEmail())
}

func TestScheduledTaskNextDueAfter(t *testing.T) {
	due := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)
	daily := "FREQ=DAILY"
	broken := "FREQ=SOMETIMES"

	tests := []struct {
		name string
		task ScheduledTask
		now  time.Time
		want time.Time
	}{
		{
			name: "one time keeps due",
			task: ScheduledTask{TaskType: ScheduledTaskTypeOneTime, Due: due},
			now:  due.Add(48 * time.Hour),
			want: due,
		},
		{
			name: "daily rule advances past now",
			task: ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:  due.Add(36 * time.Hour),
			want: due.Add(48 * time.Hour),
		},
		{
			name: "occurrence equal to now is skipped",
			task: ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &daily},
			now:  due,
			want: due.Add(24 * time.Hour),
		},
		{
			name: "invalid rule falls back to due",
			task: ScheduledTask{TaskType: ScheduledTaskTypeRecurring, Due: due, RecurringInterval: &broken},
			now:  due.Add(time.Hour),
			want: due,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.task.NextDueAfter(tt.now)), "got %s want %s", tt.task.NextDueAfter(tt.now), tt.want)
		})
	}
}
