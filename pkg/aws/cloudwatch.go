package aws

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/cloudnap/cloudnap/internal/models"
	"github.com/cloudnap/cloudnap/internal/policy"
)

// CloudWatchClient struct for CloudWatch client
type CloudWatchClient struct {
	client *cloudwatch.Client
	region string
}

// NewCloudWatchClient creates a new CloudWatchClient
func NewCloudWatchClient(ctx context.Context, region string) (*CloudWatchClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &CloudWatchClient{
		client: cloudwatch.NewFromConfig(cfg),
		region: region,
	}, nil
}

// CPUUtilization fetches averaged CPUUtilization datapoints for an instance
// over the given window, sorted by timestamp. CloudWatch may return fewer
// samples than the window implies, or none at all.
func (c *CloudWatchClient) CPUUtilization(ctx context.Context, instanceID string, w policy.Window) ([]models.UtilizationSample, error) {
	input := &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/EC2"),
		MetricName: aws.String("CPUUtilization"),
		Dimensions: []cwTypes.Dimension{
			{
				Name:  aws.String("InstanceId"),
				Value: aws.String(instanceID),
			},
		},
		StartTime:  aws.Time(w.Start),
		EndTime:    aws.Time(w.End),
		Period:     aws.Int32(int32(w.Period.Seconds())),
		Statistics: []cwTypes.Statistic{cwTypes.StatisticAverage},
	}

	result, err := c.client.GetMetricStatistics(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("error querying CPU metrics for %s: %w", instanceID, err)
	}

	samples := make([]models.UtilizationSample, 0, len(result.Datapoints))
	for _, dp := range result.Datapoints {
		if dp.Timestamp == nil || dp.Average == nil {
			continue
		}
		samples = append(samples, models.UtilizationSample{
			Timestamp: *dp.Timestamp,
			Average:   *dp.Average,
		})
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Timestamp.Before(samples[j].Timestamp)
	})

	return samples, nil
}
