package processor

import (
	"context"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
)

// Processor turns one uploaded object into a stored thumbnail.
// Implementations also satisfy mq.UploadEventHandler.
type Processor interface {
	Process(ctx context.Context, loc events.Locator) (*Result, error)
}

// Result describes a thumbnail written to the destination container.
type Result struct {
	Source      events.Locator
	Thumbnail   events.Locator
	URL         string
	Width       int
	Height      int
	Size        int64
	ContentType string
}
