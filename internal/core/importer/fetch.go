package importer

import (
	"context"
	"fmt"
	"time"

	"meal-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// FetchDataset downloads a dataset file over HTTP to dest, so an import
// can run against a remote CSV without a manual download step.
func FetchDataset(ctx context.Context, url, dest string) error {
	client := resty.New().
		SetTimeout(10 * time.Minute).
		SetRetryCount(2).
		SetRetryWaitTime(5 * time.Second)

	common.LogInfo("downloading dataset",
		zap.String("url", url),
		zap.String("dest", dest),
	)

	resp, err := client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(url)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("download dataset: unexpected status %s", resp.Status())
	}

	common.LogInfo("dataset downloaded", zap.String("dest", dest))
	return nil
}
