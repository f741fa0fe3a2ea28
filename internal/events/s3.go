package events

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// S3Record is one parsed record of an S3 / MinIO bucket notification.
type S3Record struct {
	EventName   string
	EventTime   time.Time
	Locator     Locator
	Size        int64
	ContentType string

	// Err is set when the object key could not be decoded.
	Err error
}

// s3NotificationRaw mirrors the S3 event notification JSON (also emitted by
// MinIO's Kafka/webhook targets).
type s3NotificationRaw struct {
	Records []struct {
		EventName string    `json:"eventName"`
		EventTime time.Time `json:"eventTime"`
		S3        struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key         string `json:"key"`
				Size        int64  `json:"size"`
				ContentType string `json:"contentType"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseS3Notification decodes an S3/MinIO notification. Object keys arrive
// form-encoded and are unescaped ("+" becomes a space). A record whose key
// cannot be unescaped is returned with Err set and no Locator.
func ParseS3Notification(body []byte) ([]S3Record, error) {
	var raw s3NotificationRaw
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal s3 notification: %w", err)
	}

	records := make([]S3Record, 0, len(raw.Records))
	for _, r := range raw.Records {
		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			records = append(records, S3Record{
				EventName: r.EventName,
				EventTime: r.EventTime,
				Err:       fmt.Errorf("%w: failed to url-decode key %q: %v", ErrInvalidLocator, r.S3.Object.Key, err),
			})
			continue
		}
		records = append(records, S3Record{
			EventName:   r.EventName,
			EventTime:   r.EventTime,
			Locator:     Locator{Container: r.S3.Bucket.Name, Name: key},
			Size:        r.S3.Object.Size,
			ContentType: r.S3.Object.ContentType,
		})
	}
	return records, nil
}
