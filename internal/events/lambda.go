package events

import (
	"fmt"
	"net/url"
	"strings"

	awsevents "github.com/aws/aws-lambda-go/events"
)

// FromLambdaS3Event converts the S3 event delivered to a Lambda function.
// Lambda event names lack the "s3:" prefix MinIO and SNS/SQS deliveries carry;
// it is added so one set of event name filters serves every transport.
// Records whose key cannot be decoded are returned with Err set.
func FromLambdaS3Event(evt awsevents.S3Event) []Notification {
	out := make([]Notification, 0, len(evt.Records))
	for _, r := range evt.Records {
		name := r.EventName
		if !strings.HasPrefix(name, "s3:") {
			name = "s3:" + name
		}

		n := Notification{
			ID:        r.ResponseElements["x-amz-request-id"],
			EventName: name,
			EventTime: r.EventTime,
			Size:      r.S3.Object.Size,
		}

		key, err := url.QueryUnescape(r.S3.Object.Key)
		if err != nil {
			n.Err = fmt.Errorf("%w: failed to url-decode key %q: %v", ErrInvalidLocator, r.S3.Object.Key, err)
		} else {
			n.Locator = Locator{Container: r.S3.Bucket.Name, Name: key}
		}
		out = append(out, n)
	}
	return out
}
