package pricing

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/cloudnap/cloudnap/pkg/utils"
)

// hoursPerMonth approximates 365 days / 12 months * 24 hours.
const hoursPerMonth = 730.0

// InstanceHourlyPriceWithSource returns the on-demand hourly price for an
// EC2 instance type and where the figure came from.
func InstanceHourlyPriceWithSource(instanceType, region string) (float64, Source) {
	pricingInitOnce.Do(initPricingClient)

	cacheKey := fmt.Sprintf("%s:%s", region, instanceType)

	ec2PriceCacheLock.RLock()
	if price, exists := ec2PriceCache[cacheKey]; exists {
		ec2PriceCacheLock.RUnlock()
		updateAPIStats(region, "cache")
		return price, SourceCache
	}
	ec2PriceCacheLock.RUnlock()

	if pricingClient == nil {
		// No client means no call was attempted; keep these out of the
		// failure count.
		updateAPIStats(region, "unavailable")
		return 0, SourceNA
	}

	price, err := ec2PriceFromAPI(instanceType, region)
	if err == nil {
		updateAPIStats(region, "success")

		ec2PriceCacheLock.Lock()
		ec2PriceCache[cacheKey] = price
		ec2PriceCacheLock.Unlock()

		return price, SourceAPI
	}

	log.Printf("Error getting price from API: %v for %s in %s.", err, instanceType, region)
	updateAPIStats(region, "failure")

	// No fallback price table: report N/A rather than a stale guess.
	return 0, SourceNA
}

// MonthlyCostWithSource returns the estimated monthly on-demand cost for an
// instance type and the source of the pricing.
func MonthlyCostWithSource(instanceType, region string) (float64, Source) {
	hourly, source := InstanceHourlyPriceWithSource(instanceType, region)
	if source == SourceNA {
		return 0, SourceNA
	}
	return hourly * hoursPerMonth, source
}

// ec2PriceFromAPI retrieves Linux on-demand pricing from the AWS Pricing API
func ec2PriceFromAPI(instanceType, region string) (float64, error) {
	filters := []types.Filter{
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("instanceType"),
			Value: aws.String(instanceType),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("location"),
			Value: aws.String(utils.GetRegionDescriptiveName(region)),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("operatingSystem"),
			Value: aws.String("Linux"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("tenancy"),
			Value: aws.String("Shared"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("preInstalledSw"),
			Value: aws.String("NA"),
		},
		{
			Type:  types.FilterTypeTermMatch,
			Field: aws.String("capacitystatus"),
			Value: aws.String("Used"),
		},
	}

	priceJSON, err := getPriceFromAPI(context.Background(), "AmazonEC2", filters)
	if err != nil {
		return 0, err
	}

	return extractOnDemandPrice(priceJSON)
}

// extractOnDemandPrice digs the USD on-demand price out of a price-list
// document. The document shape is deeply nested maps with opaque SKU keys.
func extractOnDemandPrice(priceJSON string) (float64, error) {
	priceData, err := utils.ParseJSON(priceJSON)
	if err != nil {
		return 0, fmt.Errorf("error parsing pricing data: %w", err)
	}

	terms, ok := priceData["terms"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("terms field not found or invalid")
	}

	onDemand, ok := terms["OnDemand"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("OnDemand field not found or invalid")
	}

	skuOffer, err := utils.GetFirstMapValue(onDemand)
	if err != nil {
		return 0, fmt.Errorf("no SKU offer found")
	}

	skuOfferMap, ok := skuOffer.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("SKU offer is not a map")
	}

	priceDimensions, ok := skuOfferMap["priceDimensions"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("priceDimensions field not found or invalid")
	}

	dimension, err := utils.GetFirstMapValue(priceDimensions)
	if err != nil {
		return 0, fmt.Errorf("no price dimension found")
	}

	dimensionMap, ok := dimension.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("price dimension is not a map")
	}

	pricePerUnit, ok := dimensionMap["pricePerUnit"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("pricePerUnit field not found or invalid")
	}

	usd, ok := pricePerUnit["USD"].(string)
	if !ok {
		return 0, fmt.Errorf("USD price not found or invalid")
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing price: %w", err)
	}

	return price, nil
}
