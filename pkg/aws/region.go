package aws

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"

	"github.com/cloudnap/cloudnap/pkg/utils"
)

// DetectRegion resolves the region to evaluate when none is configured.
// When running on an EC2 host the instance metadata service answers; outside
// AWS the lookup times out quickly and the default region is used.
func DetectRegion(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client := imds.New(imds.Options{})
	out, err := client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil || out.Region == "" {
		return utils.GetDefaultRegion()
	}
	return out.Region
}
