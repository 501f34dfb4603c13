package device

import (
	"context"

	"github.com/google/uuid"
)

// NullController is a no-op controller used before any device has been reached.
// It allows the API to run in limited mode while discovery is pending.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, id string) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) ListGroups(ctx context.Context) ([]Group, error) {
	return []Group{}, nil
}

func (c *NullController) GetGroup(ctx context.Context, id string) (*Group, error) {
	return nil, ErrNotFound
}

func (c *NullController) GetDeviceState(ctx context.Context, id string) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) SetDeviceState(ctx context.Context, id string, state map[string]any) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) GetGroupState(ctx context.Context, id string) (DeviceState, error) {
	return nil, ErrNotConnected
}

func (c *NullController) SetGroupState(ctx context.Context, id string, state map[string]any) (DeviceState, error) {
	return nil, ErrNotConnected
}

// Dispatch returns a job ID for a job that never runs.
func (c *NullController) Dispatch(target Target, id string, state map[string]any) string {
	return uuid.NewString()
}

func (c *NullController) Refresh(ctx context.Context) error {
	return ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber used alongside NullController.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan Event {
	ch := make(chan Event)
	// Channel is never sent to; callers should check IsConnected() on the controller
	return ch
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}
