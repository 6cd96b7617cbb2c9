package worklist

import (
	"context"

	"github.com/mmynk/worklog/internal/models"
)

// Source is the record store the controller reads from.
type Source interface {
	// ListRecords returns every record ordered by date descending.
	ListRecords(ctx context.Context) ([]models.WorkRecord, error)

	// Subscribe opens a change stream on the records table. The stream is
	// live when Subscribe returns.
	Subscribe(ctx context.Context, mask models.EventMask) (Subscription, error)
}

// Subscription is an open change stream.
type Subscription interface {
	// Events delivers change notifications. The channel is closed when the
	// stream ends, whether by Unsubscribe or by the source going away.
	Events() <-chan models.ChangeEvent

	// Unsubscribe stops the stream and releases its resources. It is safe
	// to call more than once and returns after delivery has stopped.
	Unsubscribe()
}
