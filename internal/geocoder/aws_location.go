package geocoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/location"
	"github.com/aws/smithy-go"

	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// DefaultAWSTimeout bounds a single place index search
const DefaultAWSTimeout = 10 * time.Second

// PlaceSearcher is the part of the AWS Location client the provider uses
type PlaceSearcher interface {
	SearchPlaceIndexForText(ctx context.Context, params *location.SearchPlaceIndexForTextInput, optFns ...func(*location.Options)) (*location.SearchPlaceIndexForTextOutput, error)
}

// AWSConfig holds the primary provider credentials
type AWSConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	IndexName       string
	Timeout         time.Duration
	HTTPClient      aws.HTTPClient // optional, the SDK default when nil
}

// Configured reports whether every value needed to call AWS is present
func (c AWSConfig) Configured() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.Region != "" && c.IndexName != ""
}

// AWSLocation geocodes through an Amazon Location Service place index
type AWSLocation struct {
	client    PlaceSearcher
	indexName string
	timeout   time.Duration
}

// NewAWSLocation builds the primary provider from static credentials.
// SDK retries are disabled: one Geocode is one request, and a failure goes
// straight to the fallback.
func NewAWSLocation(ctx context.Context, cfg AWSConfig) (*AWSLocation, error) {
	if !cfg.Configured() {
		return nil, ErrPrimaryNotConfigured
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, awsconfig.WithHTTPClient(cfg.HTTPClient))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newAWSLocation(location.NewFromConfig(awsCfg), cfg.IndexName, cfg.Timeout), nil
}

func newAWSLocation(client PlaceSearcher, indexName string, timeout time.Duration) *AWSLocation {
	if timeout <= 0 {
		timeout = DefaultAWSTimeout
	}
	return &AWSLocation{client: client, indexName: indexName, timeout: timeout}
}

// Name implements the Provider interface
func (a *AWSLocation) Name() string {
	return "aws-location"
}

// Geocode implements the Provider interface
func (a *AWSLocation) Geocode(ctx context.Context, address string) (models.GeoCoordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	out, err := a.client.SearchPlaceIndexForText(ctx, &location.SearchPlaceIndexForTextInput{
		IndexName:  aws.String(a.indexName),
		Text:       aws.String(address),
		MaxResults: aws.Int32(1),
	})
	if err != nil {
		return models.GeoCoordinate{}, classifyAWSError(a.Name(), err)
	}

	if out == nil || len(out.Results) == 0 {
		return models.GeoCoordinate{}, ErrNotFound
	}

	place := out.Results[0].Place
	if place == nil || place.Geometry == nil {
		return models.GeoCoordinate{}, malformed(a.Name(), "result has no geometry", nil)
	}

	// Point is [longitude, latitude]
	point := place.Geometry.Point
	if len(point) < 2 {
		return models.GeoCoordinate{}, malformed(a.Name(), fmt.Sprintf("point has %d values", len(point)), nil)
	}

	c, err := models.NewGeoCoordinate(point[1], point[0])
	if err != nil {
		return models.GeoCoordinate{}, malformed(a.Name(), "invalid coordinate", err)
	}
	return c, nil
}

func classifyAWSError(provider string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Provider: provider, Kind: KindTimeout, Message: "request timed out", Err: err}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		pe := &ProviderError{Provider: provider, Message: apiErr.ErrorCode(), Err: err}
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "InvalidSignatureException",
			"ExpiredTokenException", "MissingAuthenticationTokenException":
			pe.Kind = KindCredentials
		case "ThrottlingException", "ServiceQuotaExceededException":
			pe.Kind = KindRateLimited
		case "ResourceNotFoundException", "InternalServerException", "ServiceUnavailableException":
			pe.Kind = KindUnavailable
		case "ValidationException":
			pe.Kind = KindInvalidRequest
		default:
			pe.Kind = KindUnknown
		}
		return pe
	}

	return classifyTransport(provider, err)
}
