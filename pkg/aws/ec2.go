package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/cloudnap/cloudnap/internal/models"
	"github.com/cloudnap/cloudnap/pkg/utils"
)

// EC2Client struct for EC2 client
type EC2Client struct {
	client *ec2.Client
	region string
}

// NewEC2Client creates a new EC2Client
func NewEC2Client(ctx context.Context, region string) (*EC2Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	return &EC2Client{
		client: ec2.NewFromConfig(cfg),
		region: region,
	}, nil
}

// Region returns the region this client operates in.
func (c *EC2Client) Region() string {
	return c.region
}

// RunningInstances returns all EC2 instances in running state.
func (c *EC2Client) RunningInstances(ctx context.Context) ([]models.InstanceInfo, error) {
	filter := types.Filter{
		Name:   aws.String("instance-state-name"),
		Values: []string{"running"},
	}

	instances := []models.InstanceInfo{}
	var nextToken *string

	for {
		input := &ec2.DescribeInstancesInput{
			Filters:   []types.Filter{filter},
			NextToken: nextToken,
		}

		result, err := c.client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("error querying EC2 instances: %w", err)
		}

		for _, reservation := range result.Reservations {
			for _, instance := range reservation.Instances {
				instances = append(instances, c.toInstanceInfo(instance))
			}
		}

		if result.NextToken == nil || *result.NextToken == "" {
			break
		}
		nextToken = result.NextToken
	}

	return instances, nil
}

// toInstanceInfo converts an SDK instance into the internal model.
func (c *EC2Client) toInstanceInfo(instance types.Instance) models.InstanceInfo {
	info := models.InstanceInfo{
		InstanceID:   utils.SafeDeref(instance.InstanceId),
		Name:         utils.GetName(instance.Tags),
		InstanceType: string(instance.InstanceType),
		Region:       c.region,
		Tags:         utils.GetTagsMap(instance.Tags),
		Monitoring:   models.MonitoringDisabled,
	}

	if instance.LaunchTime != nil {
		info.LaunchTime = *instance.LaunchTime
	}
	if instance.Placement != nil {
		info.AvailabilityZone = utils.SafeDeref(instance.Placement.AvailabilityZone)
	}
	if instance.Monitoring != nil {
		info.Monitoring = models.MonitoringState(instance.Monitoring.State)
	}

	return info
}

// StopInstance initiates a stop for the given instance. Stopping an instance
// that is already stopping is a no-op on the EC2 side.
func (c *EC2Client) StopInstance(ctx context.Context, instanceID string) error {
	input := &ec2.StopInstancesInput{
		InstanceIds: []string{instanceID},
	}

	if _, err := c.client.StopInstances(ctx, input); err != nil {
		return fmt.Errorf("error stopping instance %s: %w", instanceID, err)
	}
	return nil
}

// EnableDetailedMonitoring switches the instance to one-minute monitoring
// and returns the monitoring state reported by EC2 (usually "pending").
func (c *EC2Client) EnableDetailedMonitoring(ctx context.Context, instanceID string) (models.MonitoringState, error) {
	input := &ec2.MonitorInstancesInput{
		InstanceIds: []string{instanceID},
	}

	result, err := c.client.MonitorInstances(ctx, input)
	if err != nil {
		return models.MonitoringDisabled, fmt.Errorf("error enabling detailed monitoring for %s: %w", instanceID, err)
	}

	for _, m := range result.InstanceMonitorings {
		if m.Monitoring != nil {
			return models.MonitoringState(m.Monitoring.State), nil
		}
	}
	return models.MonitoringDisabled, nil
}
