package mqtt

import (
	"testing"

	"github.com/berfenger/sunspec2mqtt/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandParse(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic")
	cmd, err := parseCommand(r, "loremTopic/command/rediscover", []byte("1"))
	require.NoError(t, err)

	assert.Equal("rediscover", cmd.Command, "command extract")
	assert.Equal("1", cmd.Payload)
}

func TestCommandParseFail(t *testing.T) {

	assert := assert.New(t)

	r := commandExtractor("loremTopic")
	for _, topic := range []string{
		"loremTopic/model/1/state",
		"loremTopic/command/",
		"loremTopic/command/rediscover/now",
		"otherTopic/command/rediscover",
		"prefix/loremTopic/command/rediscover",
	} {
		_, err := parseCommand(r, topic, nil)
		assert.Error(err, topic)
	}
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	client := CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)

	assert.Equal("sunspec/bridge/state", client.BridgeStateTopic())
	assert.Equal("sunspec/device", client.DeviceTopic())
	assert.Equal("sunspec/model/2/state", client.ModelStateTopic(2))
	assert.Equal("sunspec/command/poll", client.CommandTopic("poll"))
	assert.Equal("sunspec/command/#", client.commandSubscriptionTopic())

	opts := OptsFromConfig(&cfg)
	assert.Equal("sunspec/bridge/state", opts.WillTopic)
	assert.Equal([]byte(MQTT_PAYLOAD_OFFLINE), opts.WillPayload)
	assert.True(opts.WillRetained)
}
