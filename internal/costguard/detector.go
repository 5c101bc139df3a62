package costguard

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// RegionDetector reports the cloud region the process runs in.
type RegionDetector interface {
	Region(ctx context.Context) (string, error)
}

// IMDSDetector asks the EC2 instance metadata service for the region.
// Outside EC2 the lookup fails or hangs until the caller's deadline.
type IMDSDetector struct {
	client *imds.Client
}

// NewIMDSDetector creates a detector with the default IMDS client options.
func NewIMDSDetector() *IMDSDetector {
	return &IMDSDetector{client: imds.New(imds.Options{})}
}

// Region implements RegionDetector.
func (d *IMDSDetector) Region(ctx context.Context) (string, error) {
	out, err := d.client.GetRegion(ctx, &imds.GetRegionInput{})
	if err != nil {
		return "", fmt.Errorf("instance metadata region lookup failed: %w", err)
	}
	return out.Region, nil
}

var errNoStaticRegion = errors.New("no static region configured")

// StaticDetector reports a fixed region. Used for config overrides and tests.
type StaticDetector string

// Region implements RegionDetector.
func (s StaticDetector) Region(ctx context.Context) (string, error) {
	if s == "" {
		return "", errNoStaticRegion
	}
	return string(s), nil
}

// DetectorFunc adapts a function to RegionDetector.
type DetectorFunc func(ctx context.Context) (string, error)

// Region implements RegionDetector.
func (f DetectorFunc) Region(ctx context.Context) (string, error) {
	return f(ctx)
}
