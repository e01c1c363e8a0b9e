package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/answerdesk/answerdesk/internal/service"
)

// ReseedJob re-ingests the knowledge-base directory on a schedule so
// edited documents reach the index without a manual seed run. Ingestion
// appends rather than replaces; operators reset the collection when
// duplicates accumulate.
type ReseedJob struct {
	ingest *service.IngestService
	dir    string
}

func NewReseedJob(ingest *service.IngestService, dir string) *ReseedJob {
	return &ReseedJob{ingest: ingest, dir: dir}
}

func (j *ReseedJob) Name() string {
	return "kb_reseed"
}

func (j *ReseedJob) Run(ctx context.Context) error {
	report, err := j.ingest.SeedDir(ctx, j.dir)
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("reseed complete", zap.Int("accepted", report.Accepted), zap.Int("rejected", report.Rejected))
	return nil
}
