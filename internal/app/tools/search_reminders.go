package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/noto-agent/internal/domain"
)

// NoPendingReminders is the sentinel answered when nothing is scheduled.
const NoPendingReminders = "No tienes recordatorios pendientes."

// SearchReminders lists unprocessed reminders.
type SearchReminders struct {
	store domain.ReminderStore
	loc   *time.Location
}

func NewSearchReminders(store domain.ReminderStore, loc *time.Location) *SearchReminders {
	if loc == nil {
		loc = time.UTC
	}
	return &SearchReminders{store: store, loc: loc}
}

func (t *SearchReminders) Spec() domain.ToolSpec {
	return domain.ToolSpec{
		Name:        SearchRemindersName,
		Description: "Lista los recordatorios pendientes del usuario, ordenados por fecha.",
	}
}

func (t *SearchReminders) Call(ctx context.Context, _ ToolContext, _ map[string]any) (string, error) {
	rems, err := t.Pending(ctx)
	if err != nil {
		return "", err
	}
	return RenderReminders(rems, t.loc), nil
}

// Pending returns at most one page of unprocessed reminders.
func (t *SearchReminders) Pending(ctx context.Context) ([]*domain.Reminder, error) {
	rems, err := t.store.ListPendingReminders(ctx, domain.DefaultSearchLimit)
	if err != nil {
		return nil, storeErr(SearchRemindersName, err)
	}
	return rems, nil
}

// RenderReminders formats pending reminders, or NoPendingReminders.
func RenderReminders(rems []*domain.Reminder, loc *time.Location) string {
	if len(rems) == 0 {
		return NoPendingReminders
	}
	var b strings.Builder
	b.WriteString("Estos son tus recordatorios pendientes:")
	for _, r := range rems {
		fmt.Fprintf(&b, "\n- %s (%s)", r.Text, r.TriggerAt.In(loc).Format("02/01/2006 15:04"))
	}
	return b.String()
}
