package controller

import (
	"context"

	"estatelink_backend/pkg/cron"
	"estatelink_backend/pkg/payment"
	"estatelink_backend/pkg/subscription"
	"estatelink_backend/pkg/utils/cloudflare"
)

// ObjectStorage is the media bucket used for property images and avatars.
type ObjectStorage interface {
	UploadImage(ctx context.Context, cfg cloudflare.UploadImageConfig) (cloudflare.UploadResult, error)
	DeleteImage(ctx context.Context, url string) error
}

// Deps are the services handlers reach beyond the database.
type Deps struct {
	Engine       *subscription.Engine
	Payments     payment.Gateway
	Storage      ObjectStorage
	Scheduler    *cron.Scheduler
	Currency     string
	SecureCookie bool
}

var deps Deps

func Init(d Deps) {
	if d.Currency == "" {
		d.Currency = "INR"
	}
	deps = d
}
