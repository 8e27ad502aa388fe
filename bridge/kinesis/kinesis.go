// Package kinesis bridges the bus to AWS Kinesis Data Streams. As with
// the other bridge packages, it is an external collaborator (§1): it
// decodes CloudEvents off a stream shard and hands them to a Bus, and/or
// encodes outgoing Events to put onto a stream.
package kinesis

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/commontk/go-eventadmin"
)

// Config holds the stream settings the bridge needs.
type Config struct {
	Region     string
	StreamName string
}

// Bridge puts Events onto, and polls Events from, a Kinesis stream.
type Bridge struct {
	client     *kinesis.Client
	streamName string
	bus        *eventadmin.Bus
	async      bool
}

// New loads the default AWS config for config.Region and returns a
// ready-to-use Bridge. If async is true, forwarded events are delivered
// via bus.PostEvent; otherwise via bus.SendEvent.
func New(ctx context.Context, config Config, bus *eventadmin.Bus, async bool) (*Bridge, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(config.Region))
	if err != nil {
		return nil, fmt.Errorf("eventadmin/bridge/kinesis: loading aws config: %w", err)
	}
	return &Bridge{client: kinesis.NewFromConfig(cfg), streamName: config.StreamName, bus: bus, async: async}, nil
}

// Publish encodes event as a CloudEvent and puts it on the stream,
// partitioned by event.Topic.
func (b *Bridge) Publish(ctx context.Context, event eventadmin.Event) error {
	ce, err := eventadmin.ToCloudEvent(event, "eventadmin/bridge/kinesis")
	if err != nil {
		return err
	}
	payload, err := ce.MarshalJSON()
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/kinesis: marshalling cloud event: %w", err)
	}

	_, err = b.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(b.streamName),
		Data:         payload,
		PartitionKey: aws.String(event.Topic),
	})
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/kinesis: putting record: %w", err)
	}
	return nil
}

// PollShard polls shardID on a fixed interval until ctx is cancelled,
// forwarding every decoded CloudEvent record to the bridge's Bus.
func (b *Bridge) PollShard(ctx context.Context, shardID string, pollInterval time.Duration) error {
	iterOut, err := b.client.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
		StreamName:        aws.String(b.streamName),
		ShardId:           aws.String(shardID),
		ShardIteratorType: types.ShardIteratorTypeLatest,
	})
	if err != nil {
		return fmt.Errorf("eventadmin/bridge/kinesis: getting shard iterator: %w", err)
	}

	iterator := iterOut.ShardIterator
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			out, err := b.client.GetRecords(ctx, &kinesis.GetRecordsInput{ShardIterator: iterator})
			if err != nil {
				return fmt.Errorf("eventadmin/bridge/kinesis: getting records: %w", err)
			}
			for _, record := range out.Records {
				var ce cloudevents.Event
				if err := ce.UnmarshalJSON(record.Data); err != nil {
					continue
				}
				event, err := eventadmin.FromCloudEvent(ce)
				if err != nil {
					continue
				}
				if b.async {
					_ = b.bus.PostEvent(ctx, event)
				} else {
					_ = b.bus.SendEvent(ctx, event)
				}
			}
			if out.NextShardIterator == nil {
				return nil
			}
			iterator = out.NextShardIterator
		}
	}
}
