package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/angelmondragon/estateerp-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "erp-prod"}
	assert.Equal(t, "projects/erp-prod/topics/erp-domain-events", c.topicResourceName("erp-domain-events"))
	assert.Equal(t, "projects/other/topics/x", c.topicResourceName("projects/other/topics/x"))
	assert.Equal(t, "projects/erp-prod/subscriptions/erp-domain-sub", c.subscriptionResourceName(" erp-domain-sub "))
	assert.Empty(t, c.topicResourceName("  "))
	assert.Empty(t, (&Client{}).topicResourceName("erp-domain-events"))
}

func TestTopicNamesDeduplicates(t *testing.T) {
	assert.Equal(t, []string{"domain"}, topicNames(config.PubSubConfig{DomainTopic: "domain", InventoryTopic: "domain"}))
	assert.Equal(t, []string{"domain", "inventory"}, topicNames(config.PubSubConfig{DomainTopic: "domain", InventoryTopic: " inventory "}))
	assert.Empty(t, topicNames(config.PubSubConfig{}))
}
