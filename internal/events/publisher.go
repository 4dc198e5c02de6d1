// Package events provides NATS event publishing for expiry-tracker
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"expiry-tracker/internal/models"
)

const (
	streamName    = "INVENTORY"
	streamSubject = "inventory.>"

	subjectItemAdded       = "inventory.item.added"
	subjectItemUpdated     = "inventory.item.updated"
	subjectItemDeleted     = "inventory.item.deleted"
	subjectSettingsUpdated = "inventory.settings.updated"
	subjectExpiryAlert     = "inventory.expiry.alert"
)

// TrackerEventPublisher handles publishing inventory lifecycle events to
// NATS JetStream. The service degrades gracefully without it.
type TrackerEventPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *logrus.Entry
}

type itemEvent struct {
	Type        string    `json:"type"`
	ProductID   string    `json:"productId"`
	ProductName string    `json:"productName,omitempty"`
	BatchNumber string    `json:"batchNumber,omitempty"`
	ExpiryDate  string    `json:"expiryDate,omitempty"`
	Quantity    int       `json:"quantity,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type settingsEvent struct {
	Type       string                 `json:"type"`
	Settings   models.ThresholdConfig `json:"settings"`
	OccurredAt time.Time              `json:"occurredAt"`
}

type alertEvent struct {
	Type       string         `json:"type"`
	Alerts     []models.Alert `json:"alerts"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// NewTrackerEventPublisher connects to NATS and ensures the inventory
// stream exists.
func NewTrackerEventPublisher(natsURL string, logger *logrus.Logger) (*TrackerEventPublisher, error) {
	if natsURL == "" {
		return nil, fmt.Errorf("NATS URL is required")
	}

	log := logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	nc, err := nats.Connect(natsURL,
		nats.Name("expiry-tracker-publisher"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// Ensure inventory stream exists
	if _, err := js.StreamInfo(streamName); err != nil {
		if _, err := js.AddStream(&nats.StreamConfig{
			Name:     streamName,
			Subjects: []string{streamSubject},
		}); err != nil {
			log.WithError(err).Warn("Failed to ensure inventory stream exists")
		}
	}

	return &TrackerEventPublisher{
		nc:     nc,
		js:     js,
		logger: log.WithField("component", "inventory-events"),
	}, nil
}

func (p *TrackerEventPublisher) publish(ctx context.Context, subject string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = p.js.Publish(subject, data, nats.Context(ctx))
	return err
}

// PublishItemAdded publishes an inventory.item.added event
func (p *TrackerEventPublisher) PublishItemAdded(ctx context.Context, item *models.InventoryItem) error {
	event := itemEvent{
		Type:        subjectItemAdded,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		BatchNumber: item.BatchNumber,
		ExpiryDate:  item.ExpiryDate.String(),
		Quantity:    item.Quantity,
		OccurredAt:  time.Now(),
	}

	if err := p.publish(ctx, subjectItemAdded, event); err != nil {
		p.logger.WithField("productId", item.ProductID).WithError(err).Error("Failed to publish inventory.item.added event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"productId":  item.ProductID,
		"expiryDate": item.ExpiryDate.String(),
	}).Info("Published inventory.item.added event")
	return nil
}

// PublishItemUpdated publishes an inventory.item.updated event
func (p *TrackerEventPublisher) PublishItemUpdated(ctx context.Context, item *models.InventoryItem) error {
	event := itemEvent{
		Type:        subjectItemUpdated,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		BatchNumber: item.BatchNumber,
		ExpiryDate:  item.ExpiryDate.String(),
		Quantity:    item.Quantity,
		OccurredAt:  time.Now(),
	}

	if err := p.publish(ctx, subjectItemUpdated, event); err != nil {
		p.logger.WithField("productId", item.ProductID).WithError(err).Error("Failed to publish inventory.item.updated event")
		return err
	}

	p.logger.WithField("productId", item.ProductID).Info("Published inventory.item.updated event")
	return nil
}

// PublishItemDeleted publishes an inventory.item.deleted event
func (p *TrackerEventPublisher) PublishItemDeleted(ctx context.Context, productID string) error {
	event := itemEvent{
		Type:       subjectItemDeleted,
		ProductID:  productID,
		OccurredAt: time.Now(),
	}

	if err := p.publish(ctx, subjectItemDeleted, event); err != nil {
		p.logger.WithField("productId", productID).WithError(err).Error("Failed to publish inventory.item.deleted event")
		return err
	}

	p.logger.WithField("productId", productID).Info("Published inventory.item.deleted event")
	return nil
}

// PublishSettingsUpdated publishes an inventory.settings.updated event
func (p *TrackerEventPublisher) PublishSettingsUpdated(ctx context.Context, cfg *models.ThresholdConfig) error {
	event := settingsEvent{
		Type:       subjectSettingsUpdated,
		Settings:   *cfg,
		OccurredAt: time.Now(),
	}

	if err := p.publish(ctx, subjectSettingsUpdated, event); err != nil {
		p.logger.WithError(err).Error("Failed to publish inventory.settings.updated event")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"criticalDays": cfg.CriticalDays,
		"warningDays":  cfg.WarningDays,
		"moderateDays": cfg.ModerateDays,
	}).Info("Published inventory.settings.updated event")
	return nil
}

// PublishExpiryAlerts publishes an inventory.expiry.alert event carrying
// the current priority alert list.
func (p *TrackerEventPublisher) PublishExpiryAlerts(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	event := alertEvent{
		Type:       subjectExpiryAlert,
		Alerts:     alerts,
		OccurredAt: time.Now(),
	}

	if err := p.publish(ctx, subjectExpiryAlert, event); err != nil {
		p.logger.WithField("alertCount", len(alerts)).WithError(err).Error("Failed to publish inventory.expiry.alert event")
		return err
	}

	p.logger.WithField("alertCount", len(alerts)).Info("Published inventory.expiry.alert event")
	return nil
}

// IsConnected returns true if connected to NATS
func (p *TrackerEventPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close closes the NATS connection
func (p *TrackerEventPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
