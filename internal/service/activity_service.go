package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/events"
)

// ActivityService records protocol events in the application log. It is
// the only event consumer; nothing leaves the process.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger) *ActivityService {
	return &ActivityService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventProtocolCreated, a.logEvent("ProtocolCreated"))
	a.dispatcher.Subscribe(events.EventProtocolStatusChanged, a.logEvent("ProtocolStatusChanged"))
	a.dispatcher.Subscribe(events.EventProtocolUpdateAdded, a.logEvent("ProtocolUpdateAdded"))
	a.dispatcher.Subscribe(events.EventProtocolDeleted, a.logEvent("ProtocolDeleted"))
}

func (a *ActivityService) logEvent(name string) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.Int64("protocol_id", event.ProtocolID),
			zap.Any("payload", event.Payload),
		}
		if event.ActorID != nil {
			fields = append(fields, zap.String("actor_id", *event.ActorID))
		}
		a.logger.Info(name, fields...)
		return nil
	}
}
