// README: Device lookup service used to address push notifications.
package device

import "context"

type Finder interface {
	Latest(ctx context.Context, userID int64) (string, bool, error)
}

type Service struct {
	store Finder
}

func NewService(store Finder) *Service {
	return &Service{store: store}
}

// DeviceID returns nil when the user has no registered device.
func (s *Service) DeviceID(ctx context.Context, userID int64) (*string, error) {
	id, ok, err := s.store.Latest(ctx, userID)
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}
