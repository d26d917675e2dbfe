package publish

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mrz1836/shotpub/internal/domain"
	"github.com/mrz1836/shotpub/internal/testapi"
)

// DryRunUploader accepts every attachment without contacting the service.
type DryRunUploader struct {
	next atomic.Int64
}

// CreateResultAttachment returns a synthetic reference.
func (u *DryRunUploader) CreateResultAttachment(ctx context.Context, req testapi.AttachmentRequest) (domain.AttachmentReference, error) {
	if err := ctx.Err(); err != nil {
		return domain.AttachmentReference{}, err
	}

	id := int(u.next.Add(1))
	zerolog.Ctx(ctx).Info().
		Int("run_id", req.RunID).
		Int("result_id", req.ResultID).
		Str("file_name", req.FileName).
		Int("bytes", len(req.Stream)).
		Msg("dry run: skipping upload")

	return domain.AttachmentReference{
		ID:  id,
		URL: fmt.Sprintf("dry-run://runs/%d/results/%d/attachments/%d", req.RunID, req.ResultID, id),
	}, nil
}
