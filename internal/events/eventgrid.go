package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// EventGrid event types handled by the service.
const (
	EventTypeBlobCreated            = "Microsoft.Storage.BlobCreated"
	EventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"
)

// GridEvent is one entry of an EventGrid delivery (EventGrid schema).
type GridEvent struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic,omitempty"`
	Subject     string          `json:"subject"`
	EventType   string          `json:"eventType"`
	EventTime   time.Time       `json:"eventTime"`
	DataVersion string          `json:"dataVersion,omitempty"`
	Data        json.RawMessage `json:"data"`
}

// BlobCreatedData is the data payload of a BlobCreated event.
type BlobCreatedData struct {
	API           string `json:"api"`
	ContentType   string `json:"contentType"`
	ContentLength int64  `json:"contentLength"`
	BlobType      string `json:"blobType"`
	URL           string `json:"url"`
}

// ValidationData is the data payload of a subscription validation event.
type ValidationData struct {
	ValidationCode string `json:"validationCode"`
	ValidationURL  string `json:"validationUrl,omitempty"`
}

// ParseEventGrid decodes an EventGrid delivery. Both the array form used for
// HTTP push and a single bare event object are accepted.
func ParseEventGrid(body []byte) ([]GridEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty eventgrid payload")
	}

	if body[0] == '{' {
		var ev GridEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal eventgrid event: %w", err)
		}
		return []GridEvent{ev}, nil
	}

	var evs []GridEvent
	if err := json.Unmarshal(body, &evs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal eventgrid events: %w", err)
	}
	return evs, nil
}

// BlobCreated decodes the BlobCreated payload and resolves its locator.
func (e GridEvent) BlobCreated() (*BlobCreatedData, Locator, error) {
	if e.EventType != EventTypeBlobCreated {
		return nil, Locator{}, fmt.Errorf("event %s is %s, not %s", e.ID, e.EventType, EventTypeBlobCreated)
	}

	var data BlobCreatedData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, Locator{}, fmt.Errorf("failed to unmarshal blob created data: %w", err)
	}

	loc, err := LocatorFromBlobURL(data.URL)
	if err != nil {
		return nil, Locator{}, err
	}
	return &data, loc, nil
}

// Validation decodes the subscription validation payload.
func (e GridEvent) Validation() (*ValidationData, error) {
	if e.EventType != EventTypeSubscriptionValidation {
		return nil, fmt.Errorf("event %s is %s, not %s", e.ID, e.EventType, EventTypeSubscriptionValidation)
	}

	var data ValidationData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation data: %w", err)
	}
	if data.ValidationCode == "" {
		return nil, fmt.Errorf("validation event %s has no validation code", e.ID)
	}
	return &data, nil
}
