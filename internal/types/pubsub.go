package types

// PubSubType selects the transport behind the notification topic
type PubSubType string

const (
	MemoryPubSub PubSubType = "memory"
	KafkaPubSub  PubSubType = "kafka"
)
