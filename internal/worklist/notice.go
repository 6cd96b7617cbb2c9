package worklist

import "fmt"

// NoticeKind classifies a user-visible notice.
type NoticeKind int

const (
	NoticeLoadFailed NoticeKind = iota + 1
	NoticeSubscribeFailed
	NoticeSubscriptionLost
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLoadFailed:
		return "load failed"
	case NoticeSubscribeFailed:
		return "subscribe failed"
	case NoticeSubscriptionLost:
		return "live updates stopped"
	default:
		return fmt.Sprintf("notice(%d)", int(k))
	}
}

// Notice reports a recoverable failure to the user.
type Notice struct {
	Kind NoticeKind
	Err  error
}

func (n Notice) String() string {
	if n.Err == nil {
		return n.Kind.String()
	}
	return fmt.Sprintf("%s: %v", n.Kind, n.Err)
}

// Notifier receives notices. Implementations must not block for long;
// they may be called from the controller's background goroutine.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

// Notify implements Notifier.
func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
