package location

import (
	"context"

	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/common"
)

// NullProvider is the Provider for builds without positioning hardware.
// Every fix fails; positions enter the system through the Cache only.
type NullProvider struct{}

func (NullProvider) RequestPermission(ctx context.Context) error { return nil }

func (NullProvider) LastKnown(ctx context.Context) (models.Coordinates, error) {
	return models.Coordinates{}, common.ErrLocationUnavailable
}

func (NullProvider) Current(ctx context.Context, accuracy Accuracy) (models.Coordinates, error) {
	return models.Coordinates{}, common.ErrLocationUnavailable
}
