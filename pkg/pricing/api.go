package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
)

var (
	// pricingClient is the AWS Pricing API client, shared process-wide
	pricingClient *pricing.Client

	// pricingInitOnce ensures the client is initialized only once
	pricingInitOnce sync.Once

	// initMessage stores the API initialization message to be displayed
	// after spinners are done
	initMessage string
)

// initPricingClient initializes the AWS pricing client.
// The AWS Pricing API is only available in us-east-1 and ap-south-1.
func initPricingClient() {
	pricingRegion := "us-east-1"
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(pricingRegion))
	if err != nil {
		initMessage = fmt.Sprintf("Error loading AWS config for pricing API: %v. Savings will be reported as N/A.", err)
		return
	}

	pricingClient = pricing.NewFromConfig(cfg)
	initMessage = fmt.Sprintf("AWS Pricing API initialized in %s region", pricingRegion)
}

// GetInitMessage returns the initialization message and clears it
func GetInitMessage() string {
	msg := initMessage
	initMessage = ""
	return msg
}

// getPriceFromAPI fetches the first matching price-list document for the
// given service code and filters.
func getPriceFromAPI(ctx context.Context, serviceCode string, filters []types.Filter) (string, error) {
	pricingInitOnce.Do(initPricingClient)

	if pricingClient == nil {
		return "", fmt.Errorf("AWS pricing client not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	input := &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(1),
	}

	resp, err := pricingClient.GetProducts(ctx, input)
	if err != nil {
		return "", fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return "", fmt.Errorf("no pricing found")
	}

	return resp.PriceList[0], nil
}
