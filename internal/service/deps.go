package service

import (
	"MapHub-Backend/internal/blob"
	"MapHub-Backend/internal/cleanup"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/moderation"
	"MapHub-Backend/internal/repository"
	"time"

	"go.uber.org/zap"
)

// ReleaseQueue takes blob releases that failed inline. *cleanup.Processor implements it.
type ReleaseQueue interface {
	Submit(job cleanup.Job) error
}

// Deps are the collaborators shared by the map and place services.
type Deps struct {
	Storage   repository.Storage
	Blobs     blob.Store
	Moderator moderation.Moderator
	Releases  ReleaseQueue // optional
	Log       *zap.Logger
	// Now defaults to time.Now.
	Now func() time.Time
	// URLTTL is the lifetime of signed blob URLs in read models.
	URLTTL time.Duration
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) today() string {
	return domain.FormatDate(d.now())
}
