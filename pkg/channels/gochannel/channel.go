// Package gochannel provides the in-process pub/sub used when no broker is configured.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const outputBuffer = 256

// CreateChannel returns one GoChannel acting as publisher and subscriber. Events only
// reach handlers in the same process, and events published before Subscribe are lost.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel) {
	return newPubSub(logger, gochannel.Config{OutputChannelBuffer: outputBuffer})
}

// CreateTestChannel keeps events published before Subscribe and makes Publish wait
// until every handler acked.
func CreateTestChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel) {
	return newPubSub(logger, gochannel.Config{
		OutputChannelBuffer:            16,
		Persistent:                     true,
		BlockPublishUntilSubscriberAck: true,
	})
}

func newPubSub(logger watermill.LoggerAdapter, config gochannel.Config) (*gochannel.GoChannel, *gochannel.GoChannel) {
	pubSub := gochannel.NewGoChannel(config, logger)

	return pubSub, pubSub
}
