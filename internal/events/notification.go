package events

import (
	"bytes"
	"fmt"
	"time"
)

// Notification is a storage "object created" notification reduced to what
// the thumbnail pipeline needs, independent of the delivering platform.
type Notification struct {
	ID          string
	EventName   string
	EventTime   time.Time
	Subject     string
	Locator     Locator
	Size        int64
	ContentType string

	// Err is set when this entry of the payload could not be resolved to an
	// object. Such entries carry no Locator and cannot succeed on retry.
	Err error
}

// Decode detects the payload schema and returns its object notifications.
// A JSON array is treated as an EventGrid delivery, an object with "Records"
// as an S3/MinIO notification and any other object as a single EventGrid event.
// EventGrid events that are not BlobCreated are skipped. An entry that does
// not resolve to an object is returned with Err set so its siblings are still
// processed; only a payload that cannot be parsed at all is an error.
func Decode(body []byte) ([]Notification, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty notification payload")
	}

	if trimmed[0] == '{' && bytes.Contains(trimmed, []byte(`"Records"`)) {
		records, err := ParseS3Notification(trimmed)
		if err != nil {
			return nil, err
		}
		out := make([]Notification, 0, len(records))
		for _, r := range records {
			out = append(out, Notification{
				Err:         r.Err,
				EventName:   r.EventName,
				EventTime:   r.EventTime,
				Locator:     r.Locator,
				Size:        r.Size,
				ContentType: r.ContentType,
			})
		}
		return out, nil
	}

	grid, err := ParseEventGrid(trimmed)
	if err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(grid))
	for _, ev := range grid {
		if ev.EventType != EventTypeBlobCreated {
			continue
		}
		n := Notification{
			ID:        ev.ID,
			EventName: ev.EventType,
			EventTime: ev.EventTime,
			Subject:   ev.Subject,
		}
		data, loc, err := ev.BlobCreated()
		if err != nil {
			n.Err = err
			out = append(out, n)
			continue
		}
		out = append(out, Notification{
			ID:          ev.ID,
			EventName:   ev.EventType,
			EventTime:   ev.EventTime,
			Subject:     ev.Subject,
			Locator:     loc,
			Size:        data.ContentLength,
			ContentType: data.ContentType,
		})
	}
	return out, nil
}
