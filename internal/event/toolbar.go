package event

import (
	"context"

	"github.com/dshills/blockstorm/internal/event/topic"
)

// ToolbarNotifier forwards toolbar requests to the bus. Requests are
// published async and never block the caller; publish failures are dropped.
type ToolbarNotifier struct {
	pub     Publisher
	current func() string
}

// NewToolbarNotifier creates a notifier. current, if non-nil, returns the id
// of the current block for each request.
func NewToolbarNotifier(pub Publisher, current func() string) *ToolbarNotifier {
	return &ToolbarNotifier{pub: pub, current: current}
}

// Open asks the UI to show the toolbar.
func (n *ToolbarNotifier) Open(hideBlockActions bool) {
	n.publish(TopicToolbarOpen, hideBlockActions)
}

// Close asks the UI to hide the toolbar.
func (n *ToolbarNotifier) Close() {
	n.publish(TopicToolbarClose, false)
}

// Move asks the UI to reposition the toolbar next to the current block.
func (n *ToolbarNotifier) Move() {
	n.publish(TopicToolbarMove, false)
}

// ShowPlusButton asks the UI to show the block insertion affordance.
func (n *ToolbarNotifier) ShowPlusButton() {
	n.publish(TopicToolbarPlusButton, false)
}

func (n *ToolbarNotifier) publish(t topic.Topic, hide bool) {
	if n == nil || n.pub == nil {
		return
	}
	payload := ToolbarPayload{HideBlockActions: hide}
	if n.current != nil {
		payload.BlockID = n.current()
	}
	_ = n.pub.PublishAsync(context.Background(), NewEvent(t, payload, "toolbar"))
}
