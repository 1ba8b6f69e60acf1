package sink

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/tetrascience/ts-agent-monitoring/pkg/model"
)

// CloudWatchAPI is the subset of the CloudWatch client we use.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink publishes each group with one PutMetricData call.
type CloudWatchSink struct {
	client CloudWatchAPI
}

// NewCloudWatchSink creates a sink on top of client.
func NewCloudWatchSink(client CloudWatchAPI) *CloudWatchSink {
	return &CloudWatchSink{client: client}
}

// Publish implements Sink.
func (s *CloudWatchSink) Publish(ctx context.Context, group model.MetricGroup) error {
	if len(group.Records) == 0 {
		return nil
	}
	input := PutMetricDataInput(group)
	if _, err := s.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data (%s): %w", aws.ToString(input.Namespace), err)
	}
	return nil
}

// PutMetricDataInput converts a group to a CloudWatch request. The group
// namespace wins over the record namespaces.
func PutMetricDataInput(group model.MetricGroup) *cloudwatch.PutMetricDataInput {
	namespace := group.Namespace
	if namespace == "" && len(group.Records) > 0 {
		namespace = group.Records[0].Namespace
	}

	data := make([]types.MetricDatum, 0, len(group.Records))
	for _, r := range group.Records {
		dims := make([]types.Dimension, 0, len(r.Dimensions))
		for _, d := range r.Dimensions {
			dims = append(dims, types.Dimension{
				Name:  aws.String(d.Name),
				Value: aws.String(d.Value),
			})
		}
		data = append(data, types.MetricDatum{
			MetricName: aws.String(r.Name),
			Value:      aws.Float64(r.Value),
			Unit:       standardUnit(r.Unit),
			Dimensions: dims,
		})
	}

	return &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	}
}

func standardUnit(u model.Unit) types.StandardUnit {
	switch u {
	case model.UnitMilliseconds:
		return types.StandardUnitMilliseconds
	case model.UnitSeconds:
		return types.StandardUnitSeconds
	default:
		return types.StandardUnitNone
	}
}
