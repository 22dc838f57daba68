package service

import (
	"MapHub-Backend/internal/cleanup"
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/metrics"
	"context"

	"go.uber.org/zap"
)

// release deletes blobs after their rows are gone. Failures are reported and
// queued for retry; they never undo the row changes.
func (d Deps) release(ctx context.Context, origin string, refs ...*string) domain.CleanupReport {
	var report domain.CleanupReport

	for _, ref := range refs {
		if ref == nil || *ref == "" {
			continue
		}

		err := d.Blobs.Delete(ctx, *ref)
		if err == nil {
			metrics.BlobReleasesTotal.WithLabelValues("released").Inc()
			continue
		}

		d.Log.Warn("failed to release blob", zap.String("ref", *ref), zap.String("origin", origin), zap.Error(err))
		report.Failures = append(report.Failures, domain.ReleaseFailure{Ref: *ref, Error: err.Error()})

		if d.Releases != nil {
			if qerr := d.Releases.Submit(cleanup.Job{Ref: *ref, Origin: origin}); qerr != nil {
				d.Log.Error("failed to queue blob release", zap.String("ref", *ref), zap.Error(qerr))
			}
		}
	}

	return report
}

// sign resolves a blob reference to a signed URL. Signing failures degrade
// to an empty URL.
func (d Deps) sign(ctx context.Context, ref *string) string {
	if ref == nil || *ref == "" {
		return ""
	}
	u, err := d.Blobs.SignedURL(ctx, *ref, d.URLTTL)
	if err != nil {
		d.Log.Warn("failed to sign blob url", zap.String("ref", *ref), zap.Error(err))
		return ""
	}
	return u
}

// upload stores file and returns its reference, or nil when file is nil.
func (d Deps) upload(ctx context.Context, file *domain.Upload) (*string, error) {
	if file == nil {
		return nil, nil
	}
	ref, err := d.Blobs.Upload(ctx, *file)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}
