// Package alert notifies landlords about strong applicants.
package alert

import (
	"context"
	"errors"
	"fmt"
)

// Notification describes one applicant worth a landlord's attention.
type Notification struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	URL           string `json:"url,omitempty"`
	Score         int    `json:"score"`
	ApplicationID string `json:"application_id"`
	PropertyName  string `json:"property_name"`
	TenantName    string `json:"tenant_name"`
}

// Notifier delivers alerts to a specific destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n *Notification) error
}

// Manager broadcasts notifications to all registered notifiers.
type Manager struct {
	notifiers []Notifier
}

// NewManager creates a new alert manager.
func NewManager(notifiers []Notifier) *Manager {
	return &Manager{notifiers: notifiers}
}

// HasNotifiers returns true if at least one notifier is configured.
func (m *Manager) HasNotifiers() bool {
	return m != nil && len(m.notifiers) > 0
}

// Broadcast sends a notification to all registered notifiers.
// Every notifier is tried; failures are joined.
func (m *Manager) Broadcast(ctx context.Context, n *Notification) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, notifier := range m.notifiers {
		if err := notifier.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", notifier.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func summary(n *Notification) string {
	return fmt.Sprintf("%s applied for %s (risk score %d/99)", n.TenantName, n.PropertyName, n.Score)
}
